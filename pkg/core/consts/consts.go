package consts

type ContextKey string

// TraceKey 请求链路追踪ID在context中的键
const TraceKey ContextKey = "traceId"
