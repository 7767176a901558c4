// Package assistant runs a question, with an optional upload, through
// extraction, prompt composition and the model, or through one of the
// integration routes.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"docqa/internal/extract"
	"docqa/internal/integrations/github"
	"docqa/internal/models"
	"docqa/internal/service/ai"
)

var ErrEmptyQuestion = errors.New("question is required")

type Extractor interface {
	Extract(ctx context.Context, u *models.Upload) (*extract.Result, error)
}

type Composer interface {
	Compose(question, contextText string) string
	SystemPrompt() string
}

type RepoFinder interface {
	FirstRepoWithRuns(ctx context.Context) (string, error)
}

type Deployer interface {
	Deploy(ctx context.Context, data []byte) (string, error)
}

type Request struct {
	Question string
	Upload   *models.Upload
}

// Response carries either an answer or, for image uploads, the processed
// PNG to send back.
type Response struct {
	Kind      models.RequestKind
	Answer    models.Answer
	ImagePath string
	ImageName string
}

func (r *Response) IsImage() bool {
	return r != nil && r.ImagePath != ""
}

// Options enables the integration routes; a nil collaborator turns its
// route off and such questions are asked to the model instead.
type Options struct {
	Repos    RepoFinder
	Deployer Deployer
}

type Service struct {
	extractor Extractor
	composer  Composer
	llm       ai.Client
	repos     RepoFinder
	deployer  Deployer
}

func NewService(extractor Extractor, composer Composer, llm ai.Client, opts Options) *Service {
	return &Service{
		extractor: extractor,
		composer:  composer,
		llm:       llm,
		repos:     opts.Repos,
		deployer:  opts.Deployer,
	}
}

// Route is Classify with disabled integrations folded into KindAsk.
func (s *Service) Route(req Request) models.RequestKind {
	filename := ""
	if req.Upload != nil {
		filename = req.Upload.Name()
	}
	kind := Classify(req.Question, filename)
	switch {
	case kind == models.KindDeploy && s.deployer == nil:
		return models.KindAsk
	case kind == models.KindRepoLookup && s.repos == nil:
		return models.KindAsk
	}
	return kind
}

// Handle returns extract.ErrUnsupportedFormat or extract.ErrImageProcessing
// for uploads that cannot be used; upstream failures are reported through
// the answer outcome instead.
func (s *Service) Handle(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	kind := s.Route(req)
	switch kind {
	case models.KindDeploy:
		return &Response{Kind: kind, Answer: s.deploy(ctx, req.Upload)}, nil
	case models.KindRepoLookup:
		return &Response{Kind: kind, Answer: s.lookupRepo(ctx)}, nil
	}

	var contextText string
	if req.Upload != nil {
		res, err := s.extractor.Extract(ctx, req.Upload)
		if err != nil {
			return nil, err
		}
		if res.ImagePath != "" {
			return &Response{Kind: models.KindImage, ImagePath: res.ImagePath, ImageName: res.ImageName}, nil
		}
		contextText = res.Text
	}

	prompt := s.composer.Compose(req.Question, contextText)
	answer := s.llm.Ask(ctx, prompt, s.composer.SystemPrompt())
	if !answer.OK() {
		log.Printf("llm answer fallback %s: %s", answer.Outcome, answer.Message())
	}
	return &Response{Kind: models.KindAsk, Answer: answer}, nil
}

func (s *Service) lookupRepo(ctx context.Context) models.Answer {
	url, err := s.repos.FirstRepoWithRuns(ctx)
	if err != nil {
		log.Printf("repository lookup failed: %v", err)
		if errors.Is(err, github.ErrNoRepository) {
			return integrationFailure("No repository with GitHub Actions runs found")
		}
		return integrationFailure(fmt.Sprintf("GitHub lookup failed: %v", err))
	}
	return models.OKAnswer(url)
}

func (s *Service) deploy(ctx context.Context, upload *models.Upload) models.Answer {
	var data []byte
	if upload != nil {
		data = upload.Data
	}
	url, err := s.deployer.Deploy(ctx, data)
	if err != nil {
		log.Printf("vercel deployment failed: %v", err)
		return integrationFailure(fmt.Sprintf("Vercel deployment failed: %v", err))
	}
	return models.OKAnswer(url)
}

func integrationFailure(msg string) models.Answer {
	return models.Answer{Outcome: models.OutcomeIntegration, Body: msg}
}
