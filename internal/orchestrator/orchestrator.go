package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	ctxload "github.com/appgenhq/appgen/internal/context"
	"github.com/appgenhq/appgen/internal/database"
	"github.com/appgenhq/appgen/internal/errorstore"
	"github.com/appgenhq/appgen/internal/preview"
	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/internal/tools"
	"github.com/appgenhq/appgen/internal/workspace"
	"github.com/appgenhq/appgen/pkg/models"

	"github.com/google/uuid"
)

// maxToolIterations caps the tool-calling loop a single user turn may
// drive, per spec.md §4.9: an assistant that keeps requesting tools
// past this point gets cut off with a warning rather than looping
// forever.
const maxToolIterations = 5

// chatTemperature is used for the free-form assistant turns in the
// tool loop; the intent classifier and planner use their own, lower or
// higher, temperatures.
const chatTemperature = 0.4

// Orchestrator wires the context loader, tool registry, preview
// builder, and model provider into the three generate_with_planning
// branches (feature_request, debug, question/chat).
type Orchestrator struct {
	DB       *database.Database
	Files    *workspace.Store
	Errors   *errorstore.Store
	Builder  *preview.Builder
	Context  *ctxload.Cache
	Registry *tools.Registry
	Provider provider.Protocol
	Model    string
}

// NewHealer builds the Healer this Orchestrator drives from its own
// components, so callers don't have to wire one up separately.
func (o *Orchestrator) NewHealer() *Healer {
	return &Healer{Files: o.Files, Errors: o.Errors, Builder: o.Builder, Provider: o.Provider, Model: o.Model}
}

// GenerateWithPlanning implements spec.md §4.9's entry point: classify
// the message's intent, then branch. The returned Stream is closed by
// the goroutine driving the work once the turn completes.
func (o *Orchestrator) GenerateWithPlanning(ctx context.Context, projectID, userMessage string) Stream {
	out := newStream()
	go func() {
		defer close(out)
		o.run(ctx, projectID, userMessage, out)
	}()
	return out
}

func (o *Orchestrator) run(ctx context.Context, projectID, userMessage string, out Stream) {
	intent, err := ClassifyIntent(ctx, o.Provider, o.Model, userMessage)
	if err != nil {
		out.emit(ChunkWarning, fmt.Sprintf("intent classification failed, defaulting to chat: %v", err))
		intent = models.IntentChat
	}

	snap, err := o.Context.Get(ctx, projectID, ctxload.Limits{})
	if err != nil {
		out.emit(ChunkWarning, fmt.Sprintf("context snapshot failed: %v", err))
	}
	snapshotText := ctxload.Format(snap)

	if err := o.appendChat(projectID, models.RoleUser, userMessage); err != nil {
		out.emit(ChunkWarning, fmt.Sprintf("failed to persist chat message: %v", err))
	}

	switch intent {
	case models.IntentFeatureRequest:
		o.runFeatureRequest(ctx, projectID, userMessage, snapshotText, out)
	case models.IntentDebug:
		o.runDebug(ctx, projectID, userMessage, snapshotText, out)
	default:
		o.runChat(ctx, projectID, userMessage, snapshotText, out)
	}

	o.Context.Invalidate(ctx, projectID)
	out.emit(ChunkDone, "")
}

// runFeatureRequest implements the ten-step feature_request branch:
// plan, persist tasks and schema, generate one file per planned API and
// page, harvest the packages that code needs, build, and auto-heal.
func (o *Orchestrator) runFeatureRequest(ctx context.Context, projectID, userMessage, snapshotText string, out Stream) {
	// Step 3: strict-JSON plan.
	plan, err := GeneratePlan(ctx, o.Provider, o.Model, snapshotText+"\n\n"+userMessage)
	if err != nil {
		out.emit(ChunkWarning, fmt.Sprintf("planning failed: %v", err))
		o.runChat(ctx, projectID, userMessage, snapshotText, out)
		return
	}
	out.emit(ChunkText, plan.Description)

	// Step 4: persist plan tasks.
	for i, pt := range plan.Tasks {
		t := &models.Task{
			ID:          fmt.Sprintf("task-%s", uuid.New().String()[:8]),
			ProjectID:   projectID,
			Title:       pt.Title,
			Description: pt.Description,
			Status:      models.TaskTodo,
			Priority:    string(pt.Priority),
			OrderIndex:  i,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := o.DB.CreateTask(t); err != nil {
			out.emit(ChunkWarning, fmt.Sprintf("failed to persist task %q: %v", pt.Title, err))
			continue
		}
		out.emit(ChunkToolStatus, fmt.Sprintf("created task: %s", pt.Title))
	}

	// Step 5: schema migration, if the plan proposes one.
	if len(plan.DatabaseSchema) > 0 {
		migration := renderMigration(plan.DatabaseSchema)
		result := o.Registry.Dispatch(ctx, projectID, "run_migration", mustJSON(map[string]interface{}{"sql": migration}))
		if result["success"] != true {
			out.emit(ChunkWarning, fmt.Sprintf("schema migration failed: %v", result["error"]))
		} else {
			out.emit(ChunkToolStatus, "applied database schema")
		}
	}

	// Step 6: scaffold backend/frontend code with one deterministic
	// generation call per ApiSpec/PageSpec, independent of any
	// tool-call iteration budget.
	generated := o.generateAPIFiles(ctx, projectID, plan.APIs, out)
	generated = append(generated, o.generatePageFiles(ctx, projectID, plan.Pages, out)...)

	// Step 7: harvest and install whatever packages the generated code
	// imports.
	o.harvestGeneratedPackages(ctx, projectID, generated, out)

	// Step 8: trigger a build once scaffolding settles.
	files, err := o.Files.ReadAll(projectID)
	if err != nil {
		out.emit(ChunkWarning, fmt.Sprintf("failed to read files before build: %v", err))
		return
	}
	buildResult, err := o.Builder.Build(ctx, projectID, files)
	if err != nil {
		out.emit(ChunkWarning, fmt.Sprintf("build failed to run: %v", err))
		return
	}
	if buildResult.Success {
		out.emit(ChunkToolStatus, "build succeeded")
		return
	}
	out.emit(ChunkToolStatus, "build failed, starting auto-heal")

	// Step 9: bounded auto-heal loop.
	healer := o.NewHealer()
	if err := healer.Run(ctx, projectID, func(msg string) { out.emit(ChunkToolStatus, msg) }); err != nil {
		out.emit(ChunkWarning, err.Error())
	}

	// Step 10: persist a summary into the agent context for future turns.
	o.mergeContext(projectID, models.ContextData{
		CurrentPhase:   "feature_request",
		TasksCompleted: taskTitles(plan.Tasks),
	})
}

// runDebug implements the debug branch: troubleshoot up front, then
// hand the model the same bounded tool loop to read logs/files and
// apply a fix.
func (o *Orchestrator) runDebug(ctx context.Context, projectID, userMessage, snapshotText string, out Stream) {
	trouble := o.Registry.Dispatch(ctx, projectID, "troubleshoot", mustJSON(map[string]interface{}{}))

	dialog := NewDialog(debugSystemPrompt(snapshotText))
	dialog.appendUser(fmt.Sprintf("Diagnostics:\n%s\n\nUser report: %s", mustJSONString(trouble), userMessage))
	o.runToolLoop(ctx, projectID, dialog, out)
}

// runChat implements the question/chat branch: a bounded tool loop with
// no obligation to mutate anything, for answering questions about the
// project or holding ordinary conversation.
func (o *Orchestrator) runChat(ctx context.Context, projectID, userMessage, snapshotText string, out Stream) {
	dialog := NewDialog(chatSystemPrompt(snapshotText))
	dialog.appendUser(userMessage)
	o.runToolLoop(ctx, projectID, dialog, out)
}

// runToolLoop drives spec.md §4.9's _stream_with_tools loop: the model
// is offered every registered tool and may call zero or more before
// producing a final answer. Iteration is capped at maxToolIterations;
// an assistant that is still requesting tools at the cap gets a
// warning chunk instead of being allowed to loop forever.
func (o *Orchestrator) runToolLoop(ctx context.Context, projectID string, dialog *Dialog, out Stream) {
	defs := toolDefinitions()

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		resp, err := o.Provider.CreateChatCompletion(ctx, &provider.ChatCompletionRequest{
			Model:       o.Model,
			Temperature: chatTemperature,
			Messages:    dialog.Messages,
			Tools:       defs,
			ToolChoice:  "auto",
		})
		if err != nil {
			out.emit(ChunkWarning, fmt.Sprintf("model call failed: %v", err))
			return
		}
		if len(resp.Choices) == 0 {
			out.emit(ChunkWarning, "model returned no choices")
			return
		}

		choice := resp.Choices[0]
		dialog.appendAssistant(choice.Message)

		if choice.Finish != "tool_calls" || len(choice.Message.ToolCalls) == 0 {
			if choice.Message.Content != "" {
				out.emit(ChunkText, choice.Message.Content)
				if err := o.appendChat(projectID, models.RoleAssistant, choice.Message.Content); err != nil {
					out.emit(ChunkWarning, fmt.Sprintf("failed to persist assistant message: %v", err))
				}
			}
			return
		}

		for _, call := range choice.Message.ToolCalls {
			out.emit(ChunkToolStatus, fmt.Sprintf("calling %s", call.Function.Name))
			result := o.Registry.Dispatch(ctx, projectID, call.Function.Name, json.RawMessage(call.Function.Arguments))
			dialog.appendTool(call.ID, call.Function.Name, mustJSONString(result))
		}
	}

	out.emit(ChunkWarning, "maximum iterations reached without a final answer")
}

func toolDefinitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(tools.Schemas))
	for _, s := range tools.Schemas {
		defs = append(defs, provider.ToolDefinition{
			Type: "function",
			Function: provider.ToolFunctionSchema{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return defs
}

func (o *Orchestrator) appendChat(projectID string, role models.ChatRole, content string) error {
	return o.DB.AppendChatMessage(&models.ChatMessage{
		ID:        fmt.Sprintf("chat-%s", uuid.New().String()[:8]),
		ProjectID: projectID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
}

// mergeContext is a thin convenience wrapper over C7's own ctxload.Update
// operation, always merging (spec.md §4.9's end-of-turn summary write
// never replaces wholesale).
func (o *Orchestrator) mergeContext(projectID string, update models.ContextData) {
	if _, err := ctxload.Update(o.DB, projectID, update, true); err != nil {
		log.Printf("merge context for %s: %v", projectID, err)
	}
}

func taskTitles(tasks []models.PlanTask) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

// renderMigration turns a Plan's database schema into a single SQL
// script of idempotent CREATE TABLE statements, handed to the
// run_migration tool.
func renderMigration(tables []models.SchemaTable) string {
	var sql string
	for _, tbl := range tables {
		sql += fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n", tbl.Name)
		for i, col := range tbl.Columns {
			sql += fmt.Sprintf("  %s %s %s", col.Name, col.Type, col.Constraints)
			if i < len(tbl.Columns)-1 {
				sql += ","
			}
			sql += "\n"
		}
		sql += ");\n"
	}
	return sql
}

func mustJSON(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}

func mustJSONString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func debugSystemPrompt(snapshotText string) string {
	return snapshotText + "\n\nYou are debugging this application. Use read_logs, read_files, search_code, and troubleshoot to find the cause, then use update_file to apply a fix and resolve_error on any error record your fix addresses."
}

func chatSystemPrompt(snapshotText string) string {
	return snapshotText + "\n\nYou are assisting with this application. Answer the user's question or chat message. Use tools only if you need information from the project to answer accurately; never mutate files for a question or chat message."
}
