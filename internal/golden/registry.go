// Package golden holds the ground-truth answer registry for the arena's
// fixed challenges. The registry is configuration: it is loaded once at
// process start, validated loudly, and read-only afterwards, so it needs
// no locking under concurrent evaluations.
package golden

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ragarena/arena/internal/domain"
)

//go:embed dataset.yaml
var defaultDataset []byte

// Package-level validator instance for golden answer validation.
var validate = validator.New()

// dataset is the YAML document shape of a golden answer file.
type dataset struct {
	// Version guards against loading a file written for a different
	// schema revision.
	Version int `yaml:"version" validate:"required,eq=1"`

	// Questions lists every golden answer across all challenges, in
	// test-question order.
	Questions []domain.GoldenAnswer `yaml:"questions" validate:"required,min=1,dive"`
}

// Registry is the immutable, partitioned ground truth per challenge.
type Registry struct {
	answers map[domain.ChallengeType]map[string]domain.GoldenAnswer
	// order preserves the file's question order per challenge; the
	// orchestrator evaluates questions in this order.
	order map[domain.ChallengeType][]string
}

// Default loads the registry from the embedded competition dataset.
func Default() (*Registry, error) { return Parse(defaultDataset) }

// LoadFile loads the registry from a YAML file on disk, for deployments
// that override the embedded dataset.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading golden dataset %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a golden answer document.
// It fails loudly on any configuration bug: unknown fields, duplicate
// question ids, or a question missing its public/private visibility.
func Parse(data []byte) (*Registry, error) {
	var doc dataset
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding golden dataset: %w", err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("golden dataset validation failed: %w", err)
	}

	reg := &Registry{
		answers: make(map[domain.ChallengeType]map[string]domain.GoldenAnswer),
		order:   make(map[domain.ChallengeType][]string),
	}

	for _, ga := range doc.Questions {
		if !ga.Challenge.Valid() {
			return nil, domain.NewRegistryError(ga.Challenge, ga.QuestionID, domain.ErrUnknownChallenge)
		}
		byID := reg.answers[ga.Challenge]
		if byID == nil {
			byID = make(map[string]domain.GoldenAnswer)
			reg.answers[ga.Challenge] = byID
		}
		if _, dup := byID[ga.QuestionID]; dup {
			return nil, domain.NewRegistryError(ga.Challenge, ga.QuestionID,
				fmt.Errorf("%w: duplicate question id", domain.ErrPartitionViolation))
		}
		// Visibility is validated per-question above; a value outside the
		// two partitions would leave a gap in the public/private split.
		if ga.Visibility != domain.VisibilityPublic && ga.Visibility != domain.VisibilityPrivate {
			return nil, domain.NewRegistryError(ga.Challenge, ga.QuestionID, domain.ErrPartitionViolation)
		}
		byID[ga.QuestionID] = ga
		reg.order[ga.Challenge] = append(reg.order[ga.Challenge], ga.QuestionID)
	}

	return reg, nil
}

// Lookup returns the golden answer for a question id within a challenge.
// It returns an error wrapping domain.ErrQuestionNotFound for unknown ids
// and domain.ErrUnknownChallenge for challenges outside the fixed set.
func (r *Registry) Lookup(challenge domain.ChallengeType, questionID string) (domain.GoldenAnswer, error) {
	byID, ok := r.answers[challenge]
	if !ok {
		return domain.GoldenAnswer{}, domain.NewRegistryError(challenge, questionID, domain.ErrUnknownChallenge)
	}
	ga, ok := byID[questionID]
	if !ok {
		return domain.GoldenAnswer{}, domain.NewRegistryError(challenge, questionID, domain.ErrQuestionNotFound)
	}
	return ga, nil
}

// Partition returns the public and private question-id sets for a
// challenge. The sets are disjoint and together cover every question of
// the challenge; Parse enforces this at load time.
func (r *Registry) Partition(challenge domain.ChallengeType) (public, private map[string]struct{}, err error) {
	byID, ok := r.answers[challenge]
	if !ok {
		return nil, nil, domain.NewRegistryError(challenge, "", domain.ErrUnknownChallenge)
	}
	public = make(map[string]struct{})
	private = make(map[string]struct{})
	for id, ga := range byID {
		if ga.IsPublic() {
			public[id] = struct{}{}
		} else {
			private[id] = struct{}{}
		}
	}
	return public, private, nil
}

// Questions returns the challenge's golden answers in test-question
// order. The returned slice is a copy; callers may not mutate registry
// state through it.
func (r *Registry) Questions(challenge domain.ChallengeType) ([]domain.GoldenAnswer, error) {
	ids, ok := r.order[challenge]
	if !ok {
		return nil, domain.NewRegistryError(challenge, "", domain.ErrUnknownChallenge)
	}
	out := make([]domain.GoldenAnswer, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.answers[challenge][id])
	}
	return out, nil
}
