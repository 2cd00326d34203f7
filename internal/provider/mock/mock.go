package mock

import (
	"context"
	"crypto/sha256"
	"math"
	"slices"

	"github.com/saturnino-fabrica-de-software/workforce/internal/domain"
	"github.com/saturnino-fabrica-de-software/workforce/internal/provider"
)

const (
	defaultDimension = 128
	minFrameSize     = 100
)

// Provider implementa provider.FaceModel para testes e desenvolvimento.
// Os embeddings são determinísticos: o mesmo frame sempre gera o mesmo vetor.
type Provider struct {
	dimension int
	faces     []provider.FaceDescriptor
}

type Option func(*Provider)

// WithDimension altera a dimensão dos embeddings gerados
func WithDimension(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.dimension = n
		}
	}
}

// WithFaces fixa as faces retornadas, ignorando o conteúdo do frame
func WithFaces(faces ...provider.FaceDescriptor) Option {
	return func(p *Provider) {
		if faces == nil {
			faces = []provider.FaceDescriptor{}
		}
		p.faces = faces
	}
}

// New cria uma nova instância do MockProvider
func New(opts ...Option) *Provider {
	p := &Provider{dimension: defaultDimension}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DetectAndEmbed simula detecção: uma face por frame, embedding derivado do hash
func (p *Provider) DetectAndEmbed(ctx context.Context, frame []byte) ([]provider.FaceDescriptor, error) {
	if len(frame) < minFrameSize {
		return nil, domain.ErrInvalidImage
	}

	if p.faces != nil {
		out := make([]provider.FaceDescriptor, len(p.faces))
		for i, f := range p.faces {
			out[i] = f
			out[i].Embedding = slices.Clone(f.Embedding)
		}
		return out, nil
	}

	return []provider.FaceDescriptor{
		{
			Embedding:   Embedding(frame, p.dimension),
			BoundingBox: domain.BoundingBox{X: 0.1, Y: 0.1, Width: 0.8, Height: 0.8},
			Confidence:  0.99,
		},
	}, nil
}

// Ready o mock está sempre pronto
func (p *Provider) Ready(context.Context) error {
	return nil
}

// Embedding gera embedding determinístico de norma 1 baseado no hash do conteúdo
func Embedding(data []byte, dimension int) []float64 {
	hash := sha256.Sum256(data)
	embedding := make([]float64, dimension)
	hashLen := len(hash)

	for i := 0; i < dimension; i++ {
		idx := i % hashLen
		//nolint:gosec // idx is always < hashLen due to modulo operation
		embedding[i] = (float64(hash[idx])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range embedding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return embedding
	}

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

// Safety implementa provider.SafetyModel com um resultado fixo
type Safety struct {
	detection provider.PPEDetection
	err       error
}

// NewSafety retorna uma cena com uma pessoa usando capacete e colete
func NewSafety() *Safety {
	return &Safety{
		detection: provider.PPEDetection{PersonsDetected: 1, PersonsWithHelmet: 1, PersonsWithVest: 1},
	}
}

// WithDetection troca o resultado retornado por Classify
func (s *Safety) WithDetection(d provider.PPEDetection) *Safety {
	s.detection = d
	return s
}

// WithError faz Classify falhar sempre
func (s *Safety) WithError(err error) *Safety {
	s.err = err
	return s
}

func (s *Safety) Classify(ctx context.Context, frame []byte) (provider.PPEDetection, error) {
	if s.err != nil {
		return provider.PPEDetection{}, s.err
	}
	if len(frame) < minFrameSize {
		return provider.PPEDetection{}, domain.ErrInvalidImage
	}
	d := s.detection
	d.Labels = slices.Clone(d.Labels)
	return d, nil
}

var (
	_ provider.FaceModel        = (*Provider)(nil)
	_ provider.ReadinessChecker = (*Provider)(nil)
	_ provider.SafetyModel      = (*Safety)(nil)
)
