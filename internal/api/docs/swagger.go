package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// StartCameraRequest represents the body of the camera start request
type StartCameraRequest struct {
	Source   string `json:"source" example:"http://192.168.1.20:8080/?action=stream"`
	CameraID string `json:"camera_id" example:"gate-1"`
}

// CameraStatusResponse represents the detection loop status
type CameraStatusResponse struct {
	State      string `json:"state" example:"running"`
	CameraID   string `json:"camera_id,omitempty" example:"gate-1"`
	StartedAt  string `json:"started_at,omitempty" example:"2026-01-01T08:00:00Z"`
	LastCycle  string `json:"last_cycle_at,omitempty" example:"2026-01-01T08:00:05Z"`
	Cycles     uint64 `json:"cycles" example:"42"`
	ReadErrors uint64 `json:"read_errors" example:"0"`
}

// GalleryResponse represents the loaded gallery
type GalleryResponse struct {
	Size     int    `json:"size" example:"120"`
	LoadedAt string `json:"loaded_at,omitempty" example:"2026-01-01T07:59:58Z"`
}

// IdentityResponse represents one gallery entry
type IdentityResponse struct {
	IdentityID  string `json:"identity_id" example:"E001"`
	DisplayName string `json:"display_name" example:"Alice Souza"`
	Dimension   int    `json:"embedding_dimension" example:"128"`
}

// FaceDetectionEvent is streamed over the websocket as type face_detection
type FaceDetectionEvent struct {
	IdentityID  string  `json:"identity_id" example:"E001"`
	DisplayName string  `json:"display_name" example:"Alice Souza"`
	Confidence  float64 `json:"confidence" example:"0.82"`
	Distance    float64 `json:"distance" example:"0.36"`
	Known       bool    `json:"known" example:"true"`
	NewCredit   bool    `json:"new_credit" example:"true"`
	CameraID    string  `json:"camera_id" example:"gate-1"`
	Timestamp   string  `json:"timestamp" example:"2026-01-01T08:00:05Z"`
}

// SafetyResultEvent is streamed over the websocket as type safety_result
type SafetyResultEvent struct {
	Status          string   `json:"status" example:"minor_violation"`
	Violations      []string `json:"violations" example:"Safety vest required"`
	SafetyScore     float64  `json:"safety_score" example:"0.7"`
	HasHelmet       bool     `json:"has_helmet" example:"true"`
	HasVest         bool     `json:"has_vest" example:"false"`
	PersonsDetected int      `json:"persons_detected" example:"1"`
	IdentityID      string   `json:"identity_id" example:"E001"`
	CameraID        string   `json:"camera_id" example:"gate-1"`
	Timestamp       string   `json:"timestamp" example:"2026-01-01T08:00:05Z"`
}

// HealthResponse represents the health and readiness checks
type HealthResponse struct {
	Status  string            `json:"status" example:"ready"`
	Version string            `json:"version,omitempty" example:"0.1.0"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
	Details string `json:"details,omitempty" example:"source is required"`
}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Workforce Detection API",
		Version:     "v1.0.0",
		Description: "Controls the camera detection loop that credits attendance by face recognition and checks PPE compliance",
		Host:        "localhost:3000",
		Path:        "/",
	})

	internalError := response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")

	endpoints := []*endpoint.EndPoint{
		// POST /v1/camera/start
		endpoint.New(
			endpoint.POST,
			"/v1/camera/start",
			endpoint.WithTags("Camera"),
			endpoint.WithSummary("Start detection on a video source"),
			endpoint.WithDescription("Opens the source, waits for the models to become ready and starts the detection loop. Sources: http(s) JPEG snapshot URL, http(s) MJPEG stream, or dir:<path> for replay."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(StartCameraRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CameraStatusResponse{}, "200", "Detection running"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "DETECTION_RUNNING", Message: "Detection is already running"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "CAMERA_UNAVAILABLE", Message: "Video source could not be opened"}, "503", "Service Unavailable"),
				response.New(ErrorResponse{Code: "MODELS_NOT_READY", Message: "Detection models did not become ready in time"}, "503", "Service Unavailable"),
			}),
		),

		// POST /v1/camera/stop
		endpoint.New(
			endpoint.POST,
			"/v1/camera/stop",
			endpoint.WithTags("Camera"),
			endpoint.WithSummary("Stop detection"),
			endpoint.WithDescription("Waits for the in-flight cycle, releases the video source and returns to idle. Safe to call when already idle."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CameraStatusResponse{}, "200", "Detection stopped"),
			}),
		),

		// GET /v1/camera/status
		endpoint.New(
			endpoint.GET,
			"/v1/camera/status",
			endpoint.WithTags("Camera"),
			endpoint.WithSummary("Detection loop status"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CameraStatusResponse{}, "200", "Current status"),
			}),
		),

		// POST /v1/gallery/reload
		endpoint.New(
			endpoint.POST,
			"/v1/gallery/reload",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Reload the employee gallery"),
			endpoint.WithDescription("Rebuilds the in-memory gallery from active employees. On failure the previous gallery stays in use."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GalleryResponse{}, "200", "Gallery reloaded"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "GALLERY_RELOAD_FAILED", Message: "Gallery reload failed, previous gallery retained"}, "502", "Bad Gateway"),
			}),
		),

		// GET /v1/gallery
		endpoint.New(
			endpoint.GET,
			"/v1/gallery",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Gallery size"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GalleryResponse{}, "200", "Gallery summary"),
			}),
		),

		// GET /v1/gallery/{identity_id}
		endpoint.New(
			endpoint.GET,
			"/v1/gallery/{identity_id}",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Look up a gallery identity"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("identity_id", parameter.Path, parameter.WithDescription("Employee identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(IdentityResponse{}, "200", "Identity found"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "EMPLOYEE_NOT_FOUND", Message: "Employee not found"}, "404", "Not Found"),
			}),
		),

		// GET /v1/ws
		endpoint.New(
			endpoint.GET,
			"/v1/ws",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Detection event stream"),
			endpoint.WithDescription("WebSocket upgrade. Each message is {type, camera_id, data, timestamp} where type is face_detection or safety_result."),
			endpoint.WithParams(
				parameter.StrParam("events", parameter.Query, parameter.WithDescription("Comma-separated filter: face_detection, safety_result (default: both)")),
				parameter.StrParam("camera_id", parameter.Query, parameter.WithDescription("Only stream events from this camera")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(FaceDetectionEvent{}, "101", "face_detection payload"),
				response.New(SafetyResultEvent{}, "101", "safety_result payload"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "HTTP_ERROR", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
		),

		// GET /health
		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness check"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service alive"),
			}),
		),

		// GET /ready
		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness check"),
			endpoint.WithDescription("Fails when the database is unreachable. Model readiness is reported in checks."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponse{}, "200", "Service ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponse{Status: "unavailable"}, "503", "Database unreachable"),
				internalError,
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
