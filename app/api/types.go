package api

import (
	"github.com/lysyi3m/feedkit/app/feed"
)

type ProcessorInterface interface {
	Run(data []byte, contentType string, profile *feed.Profile) (*feed.Result, error)
}

var _ ProcessorInterface = (*feed.Processor)(nil)

type Handler struct {
	profileCache *feed.ProfileCache
	processor    ProcessorInterface
	bodyLimit    int64
	version      string
}
