package providers

import (
	"github.com/samber/do/v2"

	"github.com/galeriaarte/galeria-server/internal/auth"
	"github.com/galeriaarte/galeria-server/internal/config"
	"github.com/galeriaarte/galeria-server/internal/logger"
)

// ProvideVerifier provides the verifier for backend-issued access tokens.
func ProvideVerifier(i do.Injector) (*auth.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience)
	if err != nil {
		return nil, err
	}

	log.Info("Token verifier initialized", "audience", cfg.Auth.Audience)
	return verifier, nil
}
