package brain

import (
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/abelbrown/moviefinder/internal/config"
)

// Provider configurations

// GroqConfig is Groq's OpenAI-compatible chat completions API.
func GroqConfig(s config.ModelSettings) *ProviderConfig {
	return &ProviderConfig{
		Name:              "groq",
		Endpoint:          s.Endpoint,
		APIKey:            s.APIKey,
		Model:             s.Model,
		AuthHeader:        "Authorization",
		AuthPrefix:        "Bearer ",
		RequestsPerMinute: 30,
		BuildBody:         buildOpenAIBody,
		ParseResponse:     parseOpenAIResponse,
	}
}

// OllamaConfig is a local Ollama server. With no model set, the first
// installed model (preferring instruct models) is used.
func OllamaConfig(s config.ModelSettings) *ProviderConfig {
	endpoint := strings.TrimRight(s.Endpoint, "/")
	model := s.Model
	if model == "" {
		model = detectOllamaModel(endpoint)
	}
	return &ProviderConfig{
		Name:          "ollama",
		Endpoint:      endpoint + "/api/generate",
		Model:         model,
		NoAuth:        true,
		BuildBody:     buildOllamaBody,
		ParseResponse: parseOllamaResponse,
	}
}

// detectOllamaModel asks Ollama for installed models and picks one.
func detectOllamaModel(endpoint string) string {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(endpoint + "/api/tags")
	if err != nil {
		return "" // provider stays unavailable
	}
	defer resp.Body.Close()

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return ""
	}
	if len(tags.Models) == 0 {
		return ""
	}

	for _, m := range tags.Models {
		if strings.Contains(strings.ToLower(m.Name), "instruct") {
			return m.Name
		}
	}
	return tags.Models[0].Name
}

// FromConfig builds a manager holding every enabled provider.
func FromConfig(m config.ModelConfig) *ProviderManager {
	pm := NewProviderManager()
	if m.Groq.Enabled {
		pm.AddProvider(NewHTTPProvider(GroqConfig(m.Groq)))
	}
	if m.Ollama.Enabled {
		pm.AddProvider(NewHTTPProvider(OllamaConfig(m.Ollama)))
	}
	pm.SetPreferred(m.Preferred)
	return pm
}

// Body builders

func buildOpenAIBody(cfg *ProviderConfig, req Request) map[string]any {
	messages := []map[string]string{}
	if req.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.UserPrompt})

	body := map[string]any{
		"model":      cfg.Model,
		"max_tokens": maxTokensOr(req.MaxTokens, 1024),
		"messages":   messages,
		"top_p":      1,
		"stream":     false,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	return body
}

func buildOllamaBody(cfg *ProviderConfig, req Request) map[string]any {
	prompt := req.UserPrompt
	if req.SystemPrompt != "" {
		prompt = req.SystemPrompt + "\n\n" + req.UserPrompt
	}
	body := map[string]any{
		"model":  cfg.Model,
		"prompt": prompt,
		"stream": false,
	}
	if req.Temperature > 0 {
		body["options"] = map[string]any{"temperature": req.Temperature}
	}
	return body
}

// Response parsers

func parseOpenAIResponse(body []byte) (string, string, error) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	if len(resp.Choices) > 0 {
		return resp.Choices[0].Message.Content, resp.Model, nil
	}
	return "", resp.Model, nil
}

func parseOllamaResponse(body []byte) (string, string, error) {
	var resp struct {
		Response string `json:"response"`
		Model    string `json:"model"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", err
	}
	return resp.Response, resp.Model, nil
}

func maxTokensOr(v, defaultVal int) int {
	if v > 0 {
		return v
	}
	return defaultVal
}
