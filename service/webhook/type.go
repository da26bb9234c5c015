package webhook

import "context"

// IService delivers alert payloads to an external endpoint.
type IService interface {
	Post(ctx context.Context, payload map[string]interface{}) error
}
