package config

type WorkerKeyStruct struct {
	FinalizeSessionQueue string
}

var WorkerKey = &WorkerKeyStruct{
	FinalizeSessionQueue: "finalize_session_queue",
}
