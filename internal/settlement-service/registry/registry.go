// Package registry fornece o conjunto atual de resultados válidos para Event.result.
package registry

import (
	"context"
	"sort"
)

// Loader é qualquer fonte de labels de resultado
type Loader interface {
	CurrentOutcomeLabels(ctx context.Context) (map[string]struct{}, error)
}

// Static é um registro fixo, usado em testes e ambientes locais
type Static struct {
	labels map[string]struct{}
}

func NewStatic(labels ...string) *Static {
	return &Static{labels: toSet(labels)}
}

func (s *Static) CurrentOutcomeLabels(context.Context) (map[string]struct{}, error) {
	return s.labels, nil
}

func toSet(labels []string) map[string]struct{} {
	out := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		out[l] = struct{}{}
	}
	return out
}

// Sorted devolve os labels em ordem, útil para logs e respostas
func Sorted(labels map[string]struct{}) []string {
	out := make([]string, 0, len(labels))
	for l := range labels {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
