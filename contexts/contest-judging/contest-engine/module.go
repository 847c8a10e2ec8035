package contestengine

import (
	"log/slog"

	httpadapter "aquajudge/contexts/contest-judging/contest-engine/adapters/http"
	"aquajudge/contexts/contest-judging/contest-engine/adapters/memory"
	"aquajudge/contexts/contest-judging/contest-engine/application/commands"
	"aquajudge/contexts/contest-judging/contest-engine/application/queries"
	"aquajudge/contexts/contest-judging/contest-engine/application/workers"
	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Closer   workers.RegistrationCloser
	Contests ports.ContestRepository
	Judges   ports.JudgeDirectory
	Store    *memory.Store
}

type Dependencies struct {
	Contests ports.ContestRepository
	Judges   ports.JudgeDirectory
	Cache    ports.ResultsCache
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Metrics  ports.Metrics
	Logger   *slog.Logger
}

func NewModule(deps Dependencies) Module {
	lifecycle := commands.ChangeStatusUseCase{
		Contests: deps.Contests,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Metrics:  deps.Metrics,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			CreateContest: commands.CreateContestUseCase{
				Contests: deps.Contests,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			UpdateContest: commands.UpdateContestUseCase{
				Contests: deps.Contests,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			DeleteContest: commands.DeleteContestUseCase{
				Contests: deps.Contests,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			ChangeStatus: lifecycle,
			FinalizeContest: commands.FinalizeContestUseCase{
				Contests: deps.Contests,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			SubmitEntry: commands.SubmitEntryUseCase{
				Contests: deps.Contests,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			DecideSubmission: commands.DecideSubmissionUseCase{
				Contests: deps.Contests,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			InviteJudge: commands.InviteJudgeUseCase{
				Contests: deps.Contests,
				Judges:   deps.Judges,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			RespondAssignment: commands.RespondAssignmentUseCase{
				Contests: deps.Contests,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			RemoveJudge: commands.RemoveJudgeUseCase{
				Contests: deps.Contests,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			RegisterJudge: commands.RegisterJudgeUseCase{
				Judges: deps.Judges,
				Clock:  deps.Clock,
				Logger: deps.Logger,
			},
			RecordScore: commands.RecordScoreUseCase{
				Contests: deps.Contests,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Metrics:  deps.Metrics,
				Logger:   deps.Logger,
			},
			Queries: queries.ContestQueries{
				Contests: deps.Contests,
				Judges:   deps.Judges,
			},
			Results: queries.ResultsUseCase{
				Contests: deps.Contests,
				Cache:    deps.Cache,
				Logger:   deps.Logger,
			},
			Logger: deps.Logger,
		},
		Closer: workers.RegistrationCloser{
			Contests:  deps.Contests,
			Lifecycle: lifecycle,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
		Contests: deps.Contests,
		Judges:   deps.Judges,
	}
}

func NewInMemoryModule(seed []entities.Contest, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Contests: store,
		Judges:   store,
		Clock:    store,
		IDGen:    store,
		Logger:   logger,
	})
	module.Store = store
	return module
}
