package config

type WorkerKeyStruct struct {
	PersistResultsQueue     string
	PersistSubmissionsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistResultsQueue:     "persist_results_queue",
	PersistSubmissionsQueue: "persist_submissions_queue",
}
