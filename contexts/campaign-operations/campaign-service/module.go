package campaignservice

import (
	"log/slog"

	httpadapter "github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/adapters/http"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/adapters/memory"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/commands"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/application/queries"
	"github.com/smithjps512/garden-prayer-campaigns-sub001/contexts/campaign-operations/campaign-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

// Dependencies wires a module to its store. Repository serves reads; every
// write goes through UnitOfWork.
type Dependencies struct {
	UnitOfWork  ports.UnitOfWork
	Repository  ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	return Module{
		Handler: httpadapter.Handler{
			CreateBusiness: commands.CreateBusinessUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			CreatePlaybook: commands.CreatePlaybookUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			CreateCampaign: commands.CreateCampaignUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			ChangeStatus: commands.ChangeStatusUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			AddContent: commands.AddContentUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			CreateTask: commands.CreateTaskUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			UpdateTask: commands.UpdateTaskUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			CompleteTask: commands.CompleteTaskUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			CreateEscalation: commands.CreateEscalationUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			ChangeEscalationStatus: commands.ChangeEscalationStatusUseCase{
				UnitOfWork: deps.UnitOfWork,
				Clock:      deps.Clock,
				IDGen:      deps.IDGenerator,
				Logger:     deps.Logger,
			},
			GetCampaign:     queries.GetCampaignUseCase{Campaigns: deps.Repository},
			GetTask:         queries.GetTaskUseCase{Tasks: deps.Repository},
			ListTasks:       queries.ListTasksUseCase{Tasks: deps.Repository, Logger: deps.Logger},
			ListEscalations: queries.ListEscalationsUseCase{Escalations: deps.Repository, Logger: deps.Logger},
			ListActivity:    queries.ListActivityUseCase{Activity: deps.Repository},
			Logger:          deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		UnitOfWork:  store,
		Repository:  store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
