package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mailtriage/internal/model"
	"mailtriage/pkg/circuitbreaker"
	"mailtriage/pkg/metrics"
)

// systemInstruction primes the model to emit one intent from the closed set
// with a flat parameter object and a Czech confirmation.
const systemInstruction = `Jsi asistent pro správu pravidel emailové schránky. Analyzuj vstup uživatele v češtině a extrahuj záměr (intent) a parametry.

Možné intenty:
- unblock_sender: Uživatel chce zrušit mazání nebo pravidla pro odesílatele.
- granular_rule: Uživatel chce nastavit specifické akce pro různé typy emailů od jednoho odesílatele (např. smazat marketing, nechat faktury).
- list_rules: Uživatel chce vidět existující pravidla.
- pause_rule: Uživatel chce dočasně pozastavit pravidla.
- resume_rule: Uživatel chce pravidla znovu zapnout.
- delete_rule: Uživatel chce smazat pravidlo.

Pokud si nejsi jistý, vrať intent 'unknown'.
Vrať také přirozenou odpověď v 'response_text' v češtině, která potvrzuje akci.`

// responseSchema constrains the model output to the same closed intent set
// the deterministic strategy produces.
const responseSchema = `{
  "type": "OBJECT",
  "properties": {
    "intent": {
      "type": "STRING",
      "enum": ["unblock_sender", "granular_rule", "list_rules", "pause_rule", "resume_rule", "delete_rule", "unknown"]
    },
    "parameters": {
      "type": "OBJECT",
      "properties": {
        "sender": {"type": "STRING"},
        "action": {"type": "STRING"},
        "duration": {"type": "STRING"},
        "semantic_type": {"type": "STRING"}
      }
    },
    "response_text": {"type": "STRING"}
  },
  "required": ["intent", "response_text"]
}`

// ClassifierClient is the external-classifier resolution strategy: it sends
// the raw utterance to a Gemini-style generateContent endpoint and decodes
// the structured intent from the JSON answer. Every failure mode is returned
// as an error so the Resolver can fall back; nothing here is fatal.
type ClassifierClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
}

func NewClassifierClient(baseURL, modelName, apiKey string) *ClassifierClient {
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    3,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 2,
	}
	return &ClassifierClient{
		baseURL: baseURL,
		model:   modelName,
		apiKey:  apiKey,
		httpClient: &http.Client{
			// 5s 超时，避免聊天请求长时间挂起
			Timeout: 5 * time.Second,
		},
		cb: circuitbreaker.New(cbConfig),
	}
}

type generateContentRequest struct {
	SystemInstruction content          `json:"system_instruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Resolve implements Strategy. The call is bounded by the client timeout and
// the caller's context; the circuit breaker fails fast while the endpoint is
// known to be down.
func (c *ClassifierClient) Resolve(ctx context.Context, text string) (*model.Intent, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("classifier api key not configured")
	}

	var intent *model.Intent
	err := c.cb.Execute(func() error {
		start := time.Now()
		result, callErr := c.call(ctx, text)
		status := "success"
		if callErr != nil {
			status = "error"
		}
		metrics.RecordClassifierCallLatency(status, time.Since(start))
		intent = result
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

func (c *ClassifierClient) call(ctx context.Context, text string) (*model.Intent, error) {
	reqBody := generateContentRequest{
		SystemInstruction: content{Parts: []part{{Text: systemInstruction}}},
		Contents:          []content{{Parts: []part{{Text: text}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   json.RawMessage(responseSchema),
		},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var gcResp generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&gcResp); err != nil {
		return nil, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if len(gcResp.Candidates) == 0 || len(gcResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("classifier returned no candidates")
	}

	var intent model.Intent
	if err := json.Unmarshal([]byte(gcResp.Candidates[0].Content.Parts[0].Text), &intent); err != nil {
		return nil, fmt.Errorf("classifier returned malformed intent: %w", err)
	}
	if err := model.ValidateIntent(&intent); err != nil {
		return nil, err
	}
	return &intent, nil
}
