package command

type ChatCommand struct {
	Prompt string
	System string
}

type IdentifyCommand struct {
	ImageBase64 string
	Hint        string
}

type CareCommand struct {
	PlantName string
	Question  string
}
