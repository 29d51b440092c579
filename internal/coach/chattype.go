/*
Package coach holds the chat domain shared by the API server and the chat
client: the two coaching chat types, their personas and greetings, the
profile summary and the prompt composer.

Everything in this package is pure: no network, storage or clock access.
*/
package coach

import (
	"errors"
	"strings"
)

// ChatType is the closed set of coaching conversations. Each value has its own
// persona, greeting, history partition and saved-plan table.
type ChatType int

const (
	Workout ChatType = iota + 1
	Diet
)

// ErrUnknownChatType is returned when a chat type name matches no variant.
var ErrUnknownChatType = errors.New("unknown chat type")

// PlanStorage names the table and columns a chat type's saved plans live in.
type PlanStorage struct {
	Table         string
	NameColumn    string
	ContentColumn string
}

type variant struct {
	key         string
	wire        string
	title       string
	placeholder string
	persona     string
	greeting    string
	keywords    []string
	plans       PlanStorage
}

/* ====================================================================
                           Variant Table
==================================================================== */

// variants is the single place chat-type behavior is configured. Adding a
// chat type means adding a constant and a row here.
var variants = map[ChatType]variant{
	Workout: {
		key:         "workout",
		wire:        "treino",
		title:       "🏋️ Personal Trainer AI",
		placeholder: "Peça seu plano de treino...",
		persona:     workoutPersona,
		greeting:    "Bem-vindo! Sou seu Personal Trainer AI, especialista em criar planos de treino. Como posso te ajudar hoje?",
		keywords: []string{
			"exercício", "exercicio", "séries", "series", "repetições", "repeticoes",
			"treino", "descanso", "exercise", "sets", "reps", "workout",
		},
		plans: PlanStorage{Table: "saved_workouts", NameColumn: "workout_name", ContentColumn: "workout_content"},
	},
	Diet: {
		key:         "diet",
		wire:        "dieta",
		title:       "🍎 Nutricionista AI",
		placeholder: "Peça seu plano alimentar...",
		persona:     dietPersona,
		greeting:    "Bem-vindo! Sou seu Nutricionista AI, especialista em planos alimentares. O que você gostaria de comer hoje?",
		keywords: []string{
			"refeição", "refeicao", "café da manhã", "almoço", "almoco", "jantar", "lanche",
			"calorias", "kcal", "meal", "breakfast", "lunch", "dinner", "calories", "snack",
		},
		plans: PlanStorage{Table: "saved_diets", NameColumn: "diet_name", ContentColumn: "diet_content"},
	},
}

// LegacyGreeting is the welcome line of the old single-chat screen. It is
// still filtered out of history and sync payloads for older clients.
const LegacyGreeting = "Olá! Sou o FitCoachAI, seu assistente de fitness pessoal. Como posso te ajudar a atingir seus objetivos hoje?"

// ChatTypes lists every variant in a stable order.
func ChatTypes() []ChatType {
	return []ChatType{Workout, Diet}
}

// ParseChatType accepts either the storage key ("workout", "diet") or the
// gateway wire name ("treino", "dieta"), case-insensitively.
func ParseChatType(s string) (ChatType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, ct := range ChatTypes() {
		v := variants[ct]
		if s == v.key || s == v.wire {
			return ct, nil
		}
	}
	return 0, ErrUnknownChatType
}

// Valid reports whether ct is one of the known variants.
func (ct ChatType) Valid() bool {
	_, ok := variants[ct]
	return ok
}

// String returns the storage key used in the chat history table and URLs.
func (ct ChatType) String() string {
	if v, ok := variants[ct]; ok {
		return v.key
	}
	return "unknown"
}

// Wire returns the name used in the generation request body.
func (ct ChatType) Wire() string { return variants[ct].wire }

// Title is the heading shown above a chat screen.
func (ct ChatType) Title() string { return variants[ct].title }

// Placeholder is the hint text shown in an empty input box.
func (ct ChatType) Placeholder() string { return variants[ct].placeholder }

// Persona returns the fixed instruction block for the chat type.
func (ct ChatType) Persona() string { return variants[ct].persona }

// Greeting returns the welcome message that seeds every transcript. It is
// displayed but never stored.
func (ct ChatType) Greeting() string { return variants[ct].greeting }

// Plans returns where saved plans of this kind are stored.
func (ct ChatType) Plans() PlanStorage { return variants[ct].plans }

// Keywords returns the save-eligibility keywords.
func (ct ChatType) Keywords() []string {
	return append([]string(nil), variants[ct].keywords...)
}

// IsGreeting reports whether text is any known welcome message.
func IsGreeting(text string) bool {
	text = strings.TrimSpace(text)
	if text == LegacyGreeting {
		return true
	}
	for _, v := range variants {
		if text == v.greeting {
			return true
		}
	}
	return false
}

// IsPlanCandidate is the heuristic that decides whether an AI reply is worth
// offering as a saved plan: it must mention one of the chat type's keywords.
// It can over- and under-trigger.
func (ct ChatType) IsPlanCandidate(text string) bool {
	if IsGreeting(text) {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range variants[ct].keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MarshalText encodes the storage key so ChatType can be used in JSON and TOML.
func (ct ChatType) MarshalText() ([]byte, error) {
	if !ct.Valid() {
		return nil, ErrUnknownChatType
	}
	return []byte(ct.String()), nil
}

// UnmarshalText accepts any name ParseChatType accepts.
func (ct *ChatType) UnmarshalText(b []byte) error {
	parsed, err := ParseChatType(string(b))
	if err != nil {
		return err
	}
	*ct = parsed
	return nil
}
