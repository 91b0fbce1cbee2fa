package handlers

import (
	"net/http"

	"github.com/information-sharing-networks/walletpass/internal/api"
	"github.com/information-sharing-networks/walletpass/internal/version"
)

// HandleVersion godoc
//
//	@Summary		Get version information
//	@Description	Returns the version and build information for the service
//	@Tags			Common
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func HandleVersion(info version.Info, profile string) http.HandlerFunc {
	response := VersionResponse{
		Version:   info.Version,
		BuildTime: info.BuildDate,
		GitCommit: info.GitCommit,
		Profile:   profile,
		Service:   "wallet-server",
	}

	return func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithJSONPayload(w, http.StatusOK, response)
	}
}

type VersionResponse struct {
	Version   string `json:"version" example:"1.0.0"`
	BuildTime string `json:"build_time" example:"2024-01-28T10:00:00Z"`
	GitCommit string `json:"git_commit" example:"9f2c1e4"`
	Profile   string `json:"profile" example:"live"`
	Service   string `json:"service" example:"wallet-server"`
}
