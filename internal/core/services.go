package core

type Services struct {
	Job               *JobService
	JobTarget         *JobTargetService
	JobLog            *JobLogService
	JobDependency     *JobDependencyService
	Schedule          *ScheduleService
	ScheduleCondition *ScheduleConditionService
	ScheduleExclusion *ScheduleExclusionService
	Analytics         *AnalyticsService
	APIKey            *APIKeyService
}

func NewServices(db DB) *Services {
	jobs := NewJobService(db)
	targets := NewJobTargetService(db)
	return &Services{
		Job:               jobs,
		JobTarget:         targets,
		JobLog:            NewJobLogService(db),
		JobDependency:     NewJobDependencyService(db),
		Schedule:          NewScheduleService(db, jobs, targets),
		ScheduleCondition: NewScheduleConditionService(db),
		ScheduleExclusion: NewScheduleExclusionService(db),
		Analytics:         NewAnalyticsService(db),
		APIKey:            NewAPIKeyService(db),
	}
}
