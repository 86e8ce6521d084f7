package i18n

var ptBRMessages = map[Code]string{
	CodeNameEmpty:        "O nome de usuário não pode ficar vazio",
	CodeRoomNameEmpty:    "O nome da sala não pode ficar vazio",
	CodeHeroNameEmpty:    "O nome do herói não pode ficar vazio",
	CodeMessageEmpty:     "A mensagem não pode ficar vazia",
	CodeMessageTooLong:   "A mensagem deve ter no máximo {{.Max}} caracteres",
	CodePayloadInvalid:   "{{if .Field}}{{.Field}} é inválido{{else}}Conteúdo inválido{{end}}",
	CodeDicePoolNegative: "A reserva de dados não pode ficar negativa",
	CodeNameTaken:        "Nome de usuário já está em uso",
	CodeRoomNotFound:     "Sala não encontrada",
	CodeNotLoggedIn:      "Você não entrou",
	CodeAlreadyLoggedIn:  "Você já entrou como {{.Name}}",
	CodeNotInRoom:        "Você não está em uma sala",
	CodeNotAPlayer:       "Apenas heróis podem fazer {{.Action}}!",
	CodeRateLimited:      "Muitas requisições",
	CodePayloadTooLarge:  "Conteúdo grande demais",
	CodeUnsupportedType:  "Tipo de evento não suportado",
	CodeUnknown:          "Algo deu errado",
}
