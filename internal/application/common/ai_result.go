package common

type AIResult struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}
