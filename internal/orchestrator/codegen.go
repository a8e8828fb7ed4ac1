package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/appgenhq/appgen/internal/packages"
	"github.com/appgenhq/appgen/internal/provider"
	"github.com/appgenhq/appgen/pkg/models"
)

// codeGenTemperature matches original_source/backend/app/libs/ai_orchestrator.py's
// per-file code generation calls: low enough for consistent, compilable
// output, distinct from the chat loop's chatTemperature.
const codeGenTemperature = 0.3

const apiCodeSystemPrompt = "You are an expert Python/FastAPI developer. Generate clean, production-ready code."

const apiCodePromptTemplate = `Generate a complete FastAPI endpoint file for:

Endpoint: %s %s
Description: %s

Requirements:
- Create router: router = APIRouter()
- Include all necessary imports (FastAPI, Pydantic, asyncpg, os)
- Define Pydantic request/response models
- Implement the endpoint function with proper error handling
- Use async/await for database operations
- Include docstrings
- Follow best practices

Generate ONLY the Python code, no explanations.`

const pageCodeSystemPrompt = "You are an expert React/TypeScript developer. Generate clean, production-ready code with beautiful UI."

const pageCodePromptTemplate = `Generate a complete React/TypeScript page component for:

Page Name: %s
Route: %s
Description: %s

Requirements:
- Use TypeScript with proper interfaces
- Import React hooks (useState, useEffect)
- Use apiClient from 'app' for API calls
- Use shadcn/ui components from '@/components/ui/'
- Include loading and error states
- Use Tailwind CSS for styling
- Export default the component
- Follow modern React best practices
- Make it look professional with proper layout

Generate ONLY the TypeScript/React code, no explanations.`

// generateAPIFiles implements spec.md §4.9 step 5: one deterministic
// code-generation call per ApiSpec — not a delegation to the bounded
// tool-calling loop — followed by a single create_file write per
// endpoint. Returns the files it wrote, for the step-7 package harvest.
func (o *Orchestrator) generateAPIFiles(ctx context.Context, projectID string, apis []models.ApiSpec, out Stream) []packages.FileSet {
	if len(apis) == 0 {
		return nil
	}
	out.emit(ChunkToolStatus, fmt.Sprintf("creating %d backend APIs", len(apis)))

	var written []packages.FileSet
	for _, api := range apis {
		name := apiNameFromEndpoint(api.Endpoint)
		prompt := fmt.Sprintf(apiCodePromptTemplate, api.Method, api.Endpoint, api.Description)

		resp, err := o.Provider.CreateChatCompletion(ctx, &provider.ChatCompletionRequest{
			Model:       o.Model,
			Temperature: codeGenTemperature,
			Messages: []provider.ChatMessage{
				{Role: "system", Content: apiCodeSystemPrompt},
				{Role: "user", Content: prompt},
			},
		})
		if err != nil {
			out.emit(ChunkWarning, fmt.Sprintf("error generating %s api: %v", name, err))
			continue
		}
		if len(resp.Choices) == 0 {
			out.emit(ChunkWarning, fmt.Sprintf("no response generating %s api", name))
			continue
		}

		code := stripCodeFences(resp.Choices[0].Message.Content)
		path := fmt.Sprintf("backend/app/apis/%s/__init__.py", name)
		result := o.Registry.Dispatch(ctx, projectID, "create_file", mustJSON(map[string]interface{}{"path": path, "content": code}))
		if result["success"] != true {
			out.emit(ChunkWarning, fmt.Sprintf("failed to create %s api: %v", name, result["error"]))
			continue
		}
		out.emit(ChunkToolStatus, fmt.Sprintf("created %s api", name))
		written = append(written, packages.FileSet{Path: path, Content: code})
	}
	return written
}

// generatePageFiles implements spec.md §4.9 step 6: the same
// per-item, budget-free generation loop as generateAPIFiles, one
// component file per PageSpec.
func (o *Orchestrator) generatePageFiles(ctx context.Context, projectID string, pages []models.PageSpec, out Stream) []packages.FileSet {
	if len(pages) == 0 {
		return nil
	}
	out.emit(ChunkToolStatus, fmt.Sprintf("creating %d frontend pages", len(pages)))

	var written []packages.FileSet
	for _, page := range pages {
		name := pageComponentName(page.Name)
		prompt := fmt.Sprintf(pageCodePromptTemplate, page.Name, page.Route, page.Description)

		resp, err := o.Provider.CreateChatCompletion(ctx, &provider.ChatCompletionRequest{
			Model:       o.Model,
			Temperature: codeGenTemperature,
			Messages: []provider.ChatMessage{
				{Role: "system", Content: pageCodeSystemPrompt},
				{Role: "user", Content: prompt},
			},
		})
		if err != nil {
			out.emit(ChunkWarning, fmt.Sprintf("error generating %s page: %v", name, err))
			continue
		}
		if len(resp.Choices) == 0 {
			out.emit(ChunkWarning, fmt.Sprintf("no response generating %s page", name))
			continue
		}

		code := stripCodeFences(resp.Choices[0].Message.Content)
		path := fmt.Sprintf("frontend/src/pages/%s.tsx", name)
		result := o.Registry.Dispatch(ctx, projectID, "create_file", mustJSON(map[string]interface{}{"path": path, "content": code}))
		if result["success"] != true {
			out.emit(ChunkWarning, fmt.Sprintf("failed to create %s page: %v", name, result["error"]))
			continue
		}
		out.emit(ChunkToolStatus, fmt.Sprintf("created %s page", name))
		written = append(written, packages.FileSet{Path: path, Content: code})
	}
	return written
}

// harvestGeneratedPackages implements spec.md §4.9 step 7: detect
// packages across every file step 5/6 just wrote and install the
// python and node sets in separate batches, each via the install_packages
// tool (so a failure on one ecosystem never blocks the other).
func (o *Orchestrator) harvestGeneratedPackages(ctx context.Context, projectID string, generated []packages.FileSet, out Stream) {
	if len(generated) == 0 {
		return
	}
	out.emit(ChunkToolStatus, "detecting required packages")
	detected := packages.DetectFromFiles(generated)

	if len(detected.Python) > 0 {
		result := o.Registry.Dispatch(ctx, projectID, "install_packages", mustJSON(map[string]interface{}{
			"ecosystem": "python",
			"packages":  detected.Python,
		}))
		if result["success"] != true {
			out.emit(ChunkWarning, fmt.Sprintf("python package install failed: %v", result["error"]))
		} else if w, _ := result["warning"].(string); w != "" {
			out.emit(ChunkWarning, w)
		} else {
			out.emit(ChunkToolStatus, fmt.Sprintf("installed python packages: %s", strings.Join(detected.Python, ", ")))
		}
	}

	if len(detected.NPM) > 0 {
		result := o.Registry.Dispatch(ctx, projectID, "install_packages", mustJSON(map[string]interface{}{
			"ecosystem": "node",
			"packages":  detected.NPM,
		}))
		if result["success"] != true {
			out.emit(ChunkWarning, fmt.Sprintf("node package install failed: %v", result["error"]))
		} else if w, _ := result["warning"].(string); w != "" {
			out.emit(ChunkWarning, w)
		} else {
			out.emit(ChunkToolStatus, fmt.Sprintf("installed node packages: %s", strings.Join(detected.NPM, ", ")))
		}
	}
}

// apiNameFromEndpoint derives a backend module name from an endpoint
// path, e.g. "/api/todos" -> "todos", matching the original's
// endpoint.strip('/').split('/')[-1].
func apiNameFromEndpoint(endpoint string) string {
	trimmed := strings.Trim(endpoint, "/")
	parts := strings.Split(trimmed, "/")
	name := parts[len(parts)-1]
	if name == "" {
		return "unnamed_api"
	}
	return name
}

// pageComponentName falls back to a stable default when the plan omits
// a page name.
func pageComponentName(name string) string {
	if name == "" {
		return "UnknownPage"
	}
	return name
}

var codeFencePattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\n?(.*?)```")

// stripCodeFences removes a single surrounding Markdown code fence
// (```python ... ```, ```tsx ... ```, or a bare ``` ... ```), matching
// the original's split-on-fence-markers behavior. Content with no fence
// is returned trimmed and unchanged.
func stripCodeFences(code string) string {
	code = strings.TrimSpace(code)
	if m := codeFencePattern.FindStringSubmatch(code); m != nil {
		return strings.TrimSpace(m[1])
	}
	return code
}
