package common

// v0.1.0 - snapshot, series, policy and iohist verbs
// v0.2.0 - daemon verb with database and Kafka sources

const ScalyzeVersion = "0.2.0"
