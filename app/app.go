package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-poll/config"
	"github.com/mbolis/quick-poll/database"
	"github.com/mbolis/quick-poll/httpx"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Options  database.OptionRepository
	Surveys  database.SurveyRepository
	Accounts *database.AccountStore
}

func New(db *sql.DB, cfg config.Config) App {
	accounts := database.NewAccountStore(db)
	return App{
		DB:           db,
		BearerServer: httpx.NewBearerServer(accounts, cfg),
		Config:       cfg,
		Options:      database.NewOptionStore(db),
		Surveys:      database.NewSurveyStore(db),
		Accounts:     accounts,
	}
}
