package climate

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"surfsup-server/internal/modules/climate/controller"
	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/service"
)

func RegisterFeature(mux *http.ServeMux, db *sql.DB, logger *slog.Logger) {
	climateRepository := repository.NewRepository(db)
	climateService := service.NewService(climateRepository, time.Now)
	climateController := controller.NewClimateController(climateService, logger)
	climateController.RegisterRoutes(mux)
}
