//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"helpdesk/config"
	"helpdesk/internal/database"
)

func InitializeApp(cfg *config.Config, db *database.Database) (*App, error) {
	wire.Build(Set)
	return nil, nil
}
