package rpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/monitor"
	"github.com/sentinela-labs/sentinela/orchestrator"
	"github.com/sentinela-labs/sentinela/queue"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Server implements the Operational surface: thin facades onto the
// orchestrator, the auto-investigation monitor, and the priority queue,
// wired together at composition time rather than discovered.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	monitor      *monitor.Monitor
	queue        *queue.Queue
	scheduler    *queue.Scheduler
	logger       logging.Logger
}

// NewServer builds a Server. scheduler may be nil on a replica that
// doesn't drive the schedule; ListScheduledTasks then reports an empty
// list rather than erroring, since the schedule is still defined, just
// not owned here.
func NewServer(orch *orchestrator.Orchestrator, mon *monitor.Monitor, q *queue.Queue, sched *queue.Scheduler, logger logging.Logger) *Server {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	return &Server{orchestrator: orch, monitor: mon, queue: q, scheduler: sched, logger: logger}
}

// Register attaches the operational surface's handlers to a grpc.Server
// under the manually-authored ServiceDesc below.
func (s *Server) Register(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&serviceDesc, s)
}

func (s *Server) investigate(ctx context.Context, req *InvestigateRequest) (*InvestigateResponse, error) {
	if req.Query == "" {
		return nil, status.Error(codes.InvalidArgument, "query is required")
	}
	result, err := s.orchestrator.Investigate(ctx, "", req.Query)
	if err != nil {
		return &InvestigateResponse{Status: "error", Error: err.Error()}, nil
	}
	return &InvestigateResponse{
		InvestigationID: result.InvestigationID,
		Status:          "completed",
		Findings:        result.Findings,
		Sources:         result.Sources,
		Confidence:      result.ConfidenceScore,
		Explanation:     result.Explanation,
	}, nil
}

func (s *Server) monitorProgress(ctx context.Context, req *MonitorProgressRequest) (*MonitorProgressResponse, error) {
	progress := s.orchestrator.MonitorProgress(req.InvestigationID)
	return &MonitorProgressResponse{Status: string(progress.Status), Progress: progress.Progress}, nil
}

func (s *Server) triggerMonitorRun(ctx context.Context, req *TriggerMonitorRunRequest) (*TriggerMonitorRunResponse, error) {
	if s.monitor == nil {
		return nil, status.Error(codes.Unavailable, "monitor not configured on this replica")
	}

	if req.HistoricalMode {
		summary, err := s.monitor.ReanalyzeHistoricalContracts(ctx, req.MonthsBack, req.BatchSize)
		if err != nil {
			return &TriggerMonitorRunResponse{Error: err.Error()}, nil
		}
		return toTriggerResponse(summary), nil
	}

	lookback := req.LookbackHours
	if lookback <= 0 {
		lookback = 24
	}
	summary, err := s.monitor.MonitorNewContracts(ctx, lookback, req.OrganizationCodes)
	if err != nil {
		return &TriggerMonitorRunResponse{Error: err.Error()}, nil
	}
	return toTriggerResponse(summary), nil
}

func toTriggerResponse(summary monitor.RunSummary) *TriggerMonitorRunResponse {
	return &TriggerMonitorRunResponse{
		MonitoringType:        summary.MonitoringType,
		ContractsAnalyzed:     summary.ContractsAnalyzed,
		SuspiciousFound:       summary.SuspiciousFound,
		InvestigationsCreated: summary.InvestigationsCreated,
		AnomaliesDetected:     summary.AnomaliesDetected,
		DurationSeconds:       summary.DurationSeconds,
	}
}

func (s *Server) enqueueTask(ctx context.Context, req *EnqueueTaskRequest) (*EnqueueTaskResponse, error) {
	if req.TaskType == "" {
		return nil, status.Error(codes.InvalidArgument, "task_type is required")
	}
	taskID, err := s.queue.Enqueue(ctx, req.TaskType, req.Payload, queue.EnqueueOptions{
		Priority:       queue.Priority(req.Priority),
		TimeoutSeconds: req.TimeoutSecs,
		MaxRetries:     req.MaxRetries,
		CallbackURL:    req.CallbackURL,
	})
	if err != nil {
		return &EnqueueTaskResponse{Error: err.Error()}, nil
	}
	return &EnqueueTaskResponse{TaskID: taskID}, nil
}

func (s *Server) getTaskStatus(ctx context.Context, req *GetTaskStatusRequest) (*GetTaskStatusResponse, error) {
	taskStatus := s.queue.GetTaskStatus(req.TaskID)
	resp := &GetTaskStatusResponse{TaskID: req.TaskID, Status: string(taskStatus)}
	if result := s.queue.GetTaskResult(req.TaskID); result != nil {
		if m, ok := result.Result.(map[string]interface{}); ok {
			resp.Result = m
		}
		resp.Error = result.Error
	}
	return resp, nil
}

func (s *Server) listScheduledTasks(ctx context.Context, req *ListScheduledTasksRequest) (*ListScheduledTasksResponse, error) {
	if s.scheduler == nil {
		return &ListScheduledTasksResponse{}, nil
	}
	jobs := s.scheduler.Jobs()
	tasks := make([]ScheduledTaskInfo, 0, len(jobs))
	for _, job := range jobs {
		tasks = append(tasks, ScheduledTaskInfo{
			Name:     job.Name,
			TaskType: job.TaskType,
			Interval: job.Interval.String(),
			LastRun:  job.LastRun(),
		})
	}
	return &ListScheduledTasksResponse{Tasks: tasks}, nil
}

func (s *Server) getOrchestratorStats(ctx context.Context, req *GetOrchestratorStatsRequest) (*GetOrchestratorStatsResponse, error) {
	metrics := s.orchestrator.Metrics()
	return &GetOrchestratorStatsResponse{
		TotalInvestigations:  metrics.TotalInvestigations,
		FailedInvestigations: metrics.FailedInvestigations,
		AverageLatencyMs:     float64(metrics.AverageLatency.Milliseconds()),
		ExecutorStats:        s.orchestrator.ExecutorStats(),
	}, nil
}

// unaryHandler adapts one of the methods above to grpc's
// grpc.MethodHandler signature.
func unaryHandler(method string, call func(*Server, context.Context, interface{}) (interface{}, error), newReq func() interface{}) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			req := newReq()
			if err := dec(req); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return call(s, ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fmt.Sprintf("/%s/%s", serviceDesc.ServiceName, method)}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req)
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

// serviceDesc is the hand-authored equivalent of what protoc-gen-go-grpc
// would emit from a .proto file; this service has none, trading codegen
// for a handful of explicit MethodDesc entries, each paired with a
// jsonCodec-decoded request type.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: "sentinela.rpcapi.OperationalSurface",
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Investigate", func(s *Server, ctx context.Context, req interface{}) (interface{}, error) {
			return s.investigate(ctx, req.(*InvestigateRequest))
		}, func() interface{} { return &InvestigateRequest{} }),
		unaryHandler("MonitorProgress", func(s *Server, ctx context.Context, req interface{}) (interface{}, error) {
			return s.monitorProgress(ctx, req.(*MonitorProgressRequest))
		}, func() interface{} { return &MonitorProgressRequest{} }),
		unaryHandler("TriggerMonitorRun", func(s *Server, ctx context.Context, req interface{}) (interface{}, error) {
			return s.triggerMonitorRun(ctx, req.(*TriggerMonitorRunRequest))
		}, func() interface{} { return &TriggerMonitorRunRequest{} }),
		unaryHandler("EnqueueTask", func(s *Server, ctx context.Context, req interface{}) (interface{}, error) {
			return s.enqueueTask(ctx, req.(*EnqueueTaskRequest))
		}, func() interface{} { return &EnqueueTaskRequest{} }),
		unaryHandler("GetTaskStatus", func(s *Server, ctx context.Context, req interface{}) (interface{}, error) {
			return s.getTaskStatus(ctx, req.(*GetTaskStatusRequest))
		}, func() interface{} { return &GetTaskStatusRequest{} }),
		unaryHandler("ListScheduledTasks", func(s *Server, ctx context.Context, req interface{}) (interface{}, error) {
			return s.listScheduledTasks(ctx, req.(*ListScheduledTasksRequest))
		}, func() interface{} { return &ListScheduledTasksRequest{} }),
		unaryHandler("GetOrchestratorStats", func(s *Server, ctx context.Context, req interface{}) (interface{}, error) {
			return s.getOrchestratorStats(ctx, req.(*GetOrchestratorStatsRequest))
		}, func() interface{} { return &GetOrchestratorStatsRequest{} }),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sentinela/rpcapi/operational_surface.proto",
}
