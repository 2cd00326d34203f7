package rekognition

// Config holds configuration for the AWS Rekognition PPE classifier
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-1")
	Region string

	// MinConfidence is the minimum confidence (0-100) for an equipment or label detection to count
	MinConfidence float32

	// RequireFaceCover and RequireHandCover add violations beyond helmet and vest
	RequireFaceCover bool
	RequireHandCover bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		MinConfidence: 80,
	}
}
