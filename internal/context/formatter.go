package context

import (
	"fmt"
	"strings"
)

const snapshotMarker = "CURRENT PROJECT STATE"

// Format renders a Snapshot as a structured textual prompt section
// headed by the fixed "CURRENT PROJECT STATE" marker, per spec.md §4.7,
// suitable for prepending to any model system prompt.
func Format(snap Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s ===\n", snapshotMarker)

	if snap.ProjectInfo != nil {
		fmt.Fprintf(&b, "Project: %s (%s)\n", snap.ProjectInfo.Title, snap.ProjectInfo.ID)
		if snap.ProjectInfo.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", snap.ProjectInfo.Description)
		}
	}

	b.WriteString("\nTasks:\n")
	if len(snap.ActiveTasks) == 0 {
		b.WriteString("  (none active)\n")
	}
	for _, t := range snap.ActiveTasks {
		fmt.Fprintf(&b, "  - [%s] %s (%s)\n", t.Status, t.Title, t.Priority)
	}
	if len(snap.RecentlyCompleted) > 0 {
		b.WriteString("  Recently completed:\n")
		for _, t := range snap.RecentlyCompleted {
			fmt.Fprintf(&b, "    - %s\n", t.Title)
		}
	}

	b.WriteString("\nOpen errors:\n")
	if len(snap.OpenErrors) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, e := range snap.OpenErrors {
		fmt.Fprintf(&b, "  - [%s] %s", e.Kind, e.Message)
		if e.File != "" {
			fmt.Fprintf(&b, " (%s:%d)", e.File, e.Line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nFiles:\n")
	if len(snap.Files) == 0 {
		b.WriteString("  (none)\n")
	}
	roles, grouped := groupByRole(snap.Files)
	for _, role := range roles {
		fmt.Fprintf(&b, "  %s:\n", role)
		for _, f := range grouped[role] {
			b.WriteString("    - " + f.Path)
			if f.Content != "" {
				b.WriteString("\n      ```\n      " + indentBody(f.Content) + "\n      ```")
			}
			b.WriteString("\n")
		}
	}

	if snap.StoredContext.CurrentPhase != "" || snap.StoredContext.CurrentTask != "" {
		b.WriteString("\nStored memory:\n")
		if snap.StoredContext.CurrentPhase != "" {
			fmt.Fprintf(&b, "  Phase: %s\n", snap.StoredContext.CurrentPhase)
		}
		if snap.StoredContext.CurrentTask != "" {
			fmt.Fprintf(&b, "  Current task: %s\n", snap.StoredContext.CurrentTask)
		}
		if len(snap.StoredContext.RecentErrors) > 0 {
			fmt.Fprintf(&b, "  Recent errors: %s\n", strings.Join(snap.StoredContext.RecentErrors, "; "))
		}
	}

	b.WriteString("\nRecent chat:\n")
	if len(snap.ChatHistory) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, m := range snap.ChatHistory {
		fmt.Fprintf(&b, "  %s: %s\n", m.Role, m.Content)
	}

	return b.String()
}

func indentBody(content string) string {
	return strings.ReplaceAll(strings.TrimSpace(content), "\n", "\n      ")
}
