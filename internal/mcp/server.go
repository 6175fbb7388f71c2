package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/joshharrison/pertloom/internal/forecast"
	"github.com/joshharrison/pertloom/internal/pert"
	"github.com/joshharrison/pertloom/internal/session"
	"github.com/joshharrison/pertloom/internal/task"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

type taskView struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Optimistic  float64 `json:"optimistic"`
	Realistic   float64 `json:"realistic"`
	Pessimistic float64 `json:"pessimistic"`
	Expected    float64 `json:"expected"`
	StdDev      float64 `json:"std_dev"`
	Variance    float64 `json:"variance"`
}

// NewServer creates an MCP server whose tools edit and evaluate sess.
func NewServer(sess *session.Session, decimals int, log *zap.Logger) *server.MCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	s := server.NewMCPServer("pertloom", Version)

	estimate := func(name string) mcp.ToolOption {
		return mcp.WithNumber(name, mcp.Description(fmt.Sprintf("%s duration (non-negative)", name)), mcp.Required())
	}

	// Task Management
	s.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Append a task with a three-point duration estimate."),
		mcp.WithString("name", mcp.Description("Task name"), mcp.Required()),
		estimate("optimistic"),
		estimate("realistic"),
		estimate("pessimistic"),
	), addTaskHandler(sess, log))

	s.AddTool(mcp.NewTool("edit_task",
		mcp.WithDescription("Replace the task at a position with a new estimate."),
		mcp.WithNumber("index", mcp.Description("Zero-based task position"), mcp.Required()),
		mcp.WithString("name", mcp.Description("Task name"), mcp.Required()),
		estimate("optimistic"),
		estimate("realistic"),
		estimate("pessimistic"),
	), editTaskHandler(sess, log))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Remove the task at a position."),
		mcp.WithNumber("index", mcp.Description("Zero-based task position"), mcp.Required()),
	), deleteTaskHandler(sess, log))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks with their expected time, standard deviation and variance."),
	), listTasksHandler(sess))

	s.AddTool(mcp.NewTool("reset_tasks",
		mcp.WithDescription("Remove every task."),
	), resetTasksHandler(sess, log))

	// Estimation
	s.AddTool(mcp.NewTool("probability_of_finishing",
		mcp.WithDescription("Probability (0-100) that all tasks finish by the target time. Returns NaN when total variance is zero."),
		mcp.WithNumber("target", mcp.Description("Target completion time"), mcp.Required()),
	), probabilityHandler(sess, decimals))

	s.AddTool(mcp.NewTool("target_for_probability",
		mcp.WithDescription("Completion time reached with the given probability."),
		mcp.WithNumber("probability", mcp.Description("Probability percentage, strictly between 0 and 100"), mcp.Required()),
	), targetHandler(sess))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func addTaskHandler(sess *session.Session, log *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		t, err := taskFromRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		index, err := sess.Add(t)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		log.Info("task added via mcp", zap.String("name", t.Name), zap.Int("index", index))
		return mcp.NewToolResultText(fmt.Sprintf("Task '%s' added at index %d.", t.Name, index)), nil
	}
}

func editTaskHandler(sess *session.Session, log *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		index, err := indexArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		t, err := taskFromRequest(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := sess.ReplaceAt(index, t); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		log.Info("task replaced via mcp", zap.Int("index", index), zap.String("name", t.Name))
		return mcp.NewToolResultText(fmt.Sprintf("Task at index %d replaced with '%s'.", index, t.Name)), nil
	}
}

func deleteTaskHandler(sess *session.Session, log *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		index, err := indexArg(request)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		if err := sess.RemoveAt(index); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		log.Info("task removed via mcp", zap.Int("index", index))
		return mcp.NewToolResultText(fmt.Sprintf("Task at index %d deleted.", index)), nil
	}
}

func listTasksHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tasks := sess.Snapshot()
		views := make([]taskView, 0, len(tasks))
		for i, t := range tasks {
			views = append(views, taskView{
				Index:       i,
				Name:        t.Name,
				Optimistic:  t.Optimistic,
				Realistic:   t.Realistic,
				Pessimistic: t.Pessimistic,
				Expected:    t.ExpectedTime(),
				StdDev:      t.StandardDeviation(),
				Variance:    t.Variance(),
			})
		}

		summary := pert.Aggregate(tasks)
		data, err := json.Marshal(map[string]interface{}{
			"tasks":   views,
			"summary": summary,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func resetTasksHandler(sess *session.Session, log *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n := sess.Len()
		sess.Reset()
		log.Info("tasks reset via mcp", zap.Int("removed", n))
		return mcp.NewToolResultText(fmt.Sprintf("Removed %d tasks.", n)), nil
	}
}

func probabilityHandler(sess *session.Session, decimals int) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if missing := missingArgs(request, "target"); missing != "" {
			return mcp.NewToolResultError(missing), nil
		}
		target := mcp.ParseFloat64(request, "target", 0)

		result := sess.Calculate(target)
		out := map[string]interface{}{
			"target":  target,
			"defined": result.Defined,
			"display": result.Format(decimals),
			"summary": result.Summary,
		}
		if result.Defined {
			out["probability"] = result.Probability
			out["z"] = result.Z
		} else {
			out["probability"] = nil
		}

		data, err := json.Marshal(out)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func targetHandler(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if missing := missingArgs(request, "probability"); missing != "" {
			return mcp.NewToolResultError(missing), nil
		}
		pct := mcp.ParseFloat64(request, "probability", 0)

		target, ok := pert.TargetForProbability(sess.Snapshot(), pct)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf(
				"no target for probability %g: it must be strictly between 0 and 100 and the tasks need a non-zero total variance", pct)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("P%g completion time: %s", pct, forecast.Fixed(target, 3))), nil
	}
}

func taskFromRequest(request mcp.CallToolRequest) (task.Task, error) {
	if missing := missingArgs(request, "name", "optimistic", "realistic", "pessimistic"); missing != "" {
		return task.Task{}, fmt.Errorf("%s", missing)
	}
	return task.Parse(
		mcp.ParseString(request, "name", ""),
		mcp.ParseFloat64(request, "optimistic", 0),
		mcp.ParseFloat64(request, "realistic", 0),
		mcp.ParseFloat64(request, "pessimistic", 0),
	)
}

// indexArg reads the required "index" argument, rejecting values that are
// not whole numbers.
func indexArg(request mcp.CallToolRequest) (int, error) {
	if missing := missingArgs(request, "index"); missing != "" {
		return 0, fmt.Errorf("%s", missing)
	}
	args, _ := request.Params.Arguments.(map[string]any)
	switch v := args["index"].(type) {
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > 1<<53 {
			return 0, fmt.Errorf("index must be a whole number, got %g", v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("index must be a whole number, got %s", v)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("index must be a whole number, got %v", v)
	}
}

// missingArgs returns an error message naming the first absent argument.
func missingArgs(request mcp.CallToolRequest, names ...string) string {
	args, _ := request.Params.Arguments.(map[string]any)
	for _, n := range names {
		if _, ok := args[n]; !ok {
			return fmt.Sprintf("missing required argument '%s'", n)
		}
	}
	return ""
}
