package core

import (
	"context"
	"errors"

	"github.com/JonMunkholm/coordgrid/internal/table"
)

// ErrPasteCancelled is returned when the user dismisses the mapping prompt.
// The window is left exactly as it was.
var ErrPasteCancelled = errors.New("paste cancelled")

// MappingPrompter asks the user which pasted columns carry the name and the
// coordinates. It blocks until the user answers; returning ErrPasteCancelled
// (or any other error) aborts the paste with no side effects.
type MappingPrompter interface {
	PromptMapping(ctx context.Context, firstRow []string, options []table.MappingOption) (table.ColumnMapping, error)
}

// PrompterFunc adapts a function to MappingPrompter.
type PrompterFunc func(ctx context.Context, firstRow []string, options []table.MappingOption) (table.ColumnMapping, error)

// PromptMapping calls f.
func (f PrompterFunc) PromptMapping(ctx context.Context, firstRow []string, options []table.MappingOption) (table.ColumnMapping, error) {
	return f(ctx, firstRow, options)
}

// FixedMapping answers every prompt with the same mapping. The HTTP API uses
// it for mappings sent with the paste request.
func FixedMapping(m table.ColumnMapping) MappingPrompter {
	return PrompterFunc(func(context.Context, []string, []table.MappingOption) (table.ColumnMapping, error) {
		return m, nil
	})
}

// Cancelled answers every prompt with ErrPasteCancelled.
func Cancelled() MappingPrompter {
	return PrompterFunc(func(context.Context, []string, []table.MappingOption) (table.ColumnMapping, error) {
		return table.ColumnMapping{}, ErrPasteCancelled
	})
}
