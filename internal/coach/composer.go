package coach

import (
	"strconv"
	"strings"
)

// Role identifies the speaker of a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// Speaker labels used in the rendered conversation.
const (
	userLabel      = "Usuário"
	assistantLabel = "FitCoachAI"
)

const (
	noProfileFallback = "O usuário ainda não preencheu o perfil. Responda de forma genérica."
	regenerationCue   = assistantLabel + ": A resposta anterior não foi útil. Por favor, gere uma resposta nova e melhorada para a última pergunta do usuário."
)

// Turn is one rendered message of a conversation.
type Turn struct {
	Role Role
	Text string
}

// Profile is the subset of a user's profile that personalises the prompt.
// Nil numeric fields and empty strings mean "not provided".
type Profile struct {
	Name               string
	Age                *int
	Sex                string
	HeightCm           *float64
	WeightKg           *float64
	ActivityLevel      string
	Experience         string
	Goal               string
	HealthRestrictions string

	Allergies     string
	Intolerances  string
	DislikedFoods string
	DietType      string
	MealsPerDay   *int
}

// Request is everything the composer needs for one prompt.
type Request struct {
	ChatType ChatType
	// Persona overrides the chat type's built-in instruction block when non-empty.
	Persona string
	// Profile is nil when the user has not filled in a profile yet.
	Profile *Profile
	// History is the ordered conversation, normally ending with the new user turn.
	History []Turn
	// Regenerate asks for a new answer to the last user turn instead of a continuation.
	Regenerate bool
}

// Compose renders the prompt as persona, profile summary, conversation and the
// assistant cue, separated by blank lines. Greetings are dropped from the
// conversation. The result depends only on req.
func Compose(req Request) string {
	persona := strings.TrimSpace(req.Persona)
	if persona == "" {
		persona = req.ChatType.Persona()
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(ProfileSummary(req.ChatType, req.Profile))
	b.WriteString("\n\n")

	if conv := renderTurns(req.History); conv != "" {
		b.WriteString(conv)
		b.WriteString("\n\n")
	}

	if req.Regenerate {
		b.WriteString(regenerationCue)
	} else {
		b.WriteString(assistantLabel + ":")
	}
	return b.String()
}

func renderTurns(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		text := strings.TrimSpace(t.Text)
		if text == "" || IsGreeting(text) {
			continue
		}
		label := assistantLabel
		if t.Role == RoleUser {
			label = userLabel
		}
		lines = append(lines, label+": "+text)
	}
	return strings.Join(lines, "\n")
}

// ProfileSummary renders the profile block. A nil profile yields the generic fallback sentence.
func ProfileSummary(ct ChatType, p *Profile) string {
	if p == nil {
		return noProfileFallback
	}

	lines := []string{
		"Aqui estão os dados do usuário com quem você está conversando:",
		"- Nome: " + orDefault(p.Name, "Não informado"),
		"- Idade: " + intOr(p.Age, "Não informada"),
		"- Sexo: " + orDefault(p.Sex, "Não informado"),
		"- Altura (cm): " + floatOr(p.HeightCm, "Não informada"),
		"- Peso (kg): " + floatOr(p.WeightKg, "Não informado"),
		"- Nível de atividade: " + orDefault(p.ActivityLevel, "Não informado"),
		"- Objetivo principal: " + orDefault(p.Goal, "Não informado"),
		"- Nível de experiência com treinos: " + orDefault(p.Experience, "Não informado"),
		"- Restrições de saúde: " + orDefault(p.HealthRestrictions, "Nenhuma"),
	}
	if ct == Diet {
		lines = append(lines,
			"- Alergias: "+orDefault(p.Allergies, "Nenhuma"),
			"- Intolerâncias: "+orDefault(p.Intolerances, "Nenhuma"),
			"- Alimentos que não gosta: "+orDefault(p.DislikedFoods, "Nenhum"),
			"- Tipo de dieta preferida: "+orDefault(p.DietType, "Não informado"),
			"- Refeições por dia: "+intOr(p.MealsPerDay, "Não informado"),
		)
	}
	lines = append(lines, "Use essas informações para personalizar suas respostas.")
	return strings.Join(lines, "\n")
}

// MotivationPrompt asks for the short daily motivational message.
func MotivationPrompt(p *Profile) string {
	name, goal := "um usuário", "melhorar a saúde"
	if p != nil {
		name = orDefault(p.Name, name)
		goal = orDefault(p.Goal, goal)
	}
	return "Gere uma mensagem motivacional curta e inspiradora (no máximo 3 frases) para " + name +
		` que está focado em seu objetivo de "` + goal + `". A mensagem deve ser positiva e encorajadora.`
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}

func intOr(n *int, fallback string) string {
	if n == nil {
		return fallback
	}
	return strconv.Itoa(*n)
}

func floatOr(f *float64, fallback string) string {
	if f == nil {
		return fallback
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
