package assistant

import (
	"strings"

	"docqa/internal/extract"
	"docqa/internal/models"
)

const (
	deployPhrase     = "find the vercel api url"
	repoActionPhrase = "github action"
	repoURLPhrase    = "repository url"
)

// Classify picks the route for a request. filename is empty when nothing was
// uploaded. Precedence: deploy, repository lookup, image, ask.
func Classify(question, filename string) models.RequestKind {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, deployPhrase):
		return models.KindDeploy
	case strings.Contains(q, repoActionPhrase) && strings.Contains(q, repoURLPhrase):
		return models.KindRepoLookup
	case filename != "" && extract.IsImageName(filename):
		return models.KindImage
	default:
		return models.KindAsk
	}
}
