package background

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/study-helper/internal/domain"
	"github.com/heartmarshall/study-helper/internal/transport/message"
)

// GetDefinition looks a word up. Lookup failures are answered with the
// error variant of the definition, never with an error.
func (s *Service) GetDefinition(ctx context.Context, req message.GetDefinitionRequest) (any, error) {
	word := domain.NormalizeWord(req.Word)

	def, err := s.dict.Lookup(ctx, word)
	if err != nil {
		le, ok := domain.AsLookupError(err)
		if !ok {
			le = domain.NewLookupError(word, domain.LookupHTTPError, err)
		}
		s.log.DebugContext(ctx, "definition unavailable",
			slog.String("word", req.Word),
			slog.String("kind", string(le.Kind)),
		)
		return message.GetDefinitionResponse{Definition: message.DefinitionFailed(req.Word, le)}, nil
	}

	return message.GetDefinitionResponse{Definition: message.DefinitionOK(def)}, nil
}
