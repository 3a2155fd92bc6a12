package pipeline

import (
	"github.com/harmonize-mb/harmonize/internal/config"
	"github.com/harmonize-mb/harmonize/internal/musicbrainz"
	"github.com/harmonize-mb/harmonize/internal/prompt"
)

// DefaultPipeline creates a pipeline with the standard import steps in
// order, honouring the skip flags of the configuration.
//
// Design decision: We provide a default pipeline because the step order
// is not arbitrary: ISRC and track link edits need the Harmony page the
// submit step produced, cover art needs the release tab the release
// step opened, and verification needs the MBID. The CLI should not have
// to re-encode that.
//
// The wsClient may be nil (e.g. on the test server); the verify step
// then skips itself.
func DefaultPipeline(
	cfg *config.Config,
	prompter prompt.Prompter,
	wsClient *musicbrainz.Client,
	providerCfg config.ProviderConfig,
	opts ...Option,
) *Pipeline {
	p := New(opts...)

	p.AddSteps(
		NewSubmitStep(cfg, prompter,
			WithSubmitExtraWait(providerCfg.ExtraWaitDuration()),
			WithSubmitLogger(p.logger),
		),
		NewReleaseStep(cfg, prompter, WithReleaseLogger(p.logger)),
	)

	if !cfg.SkipISRC && !providerCfg.SkipISRC {
		p.AddStep(NewISRCStep(cfg, WithISRCLogger(p.logger)))
	}

	p.AddStep(NewTrackLinksStep(cfg, WithTrackLinksLogger(p.logger)))

	if !cfg.SkipCoverArt && !providerCfg.SkipCoverArt {
		p.AddStep(NewCoverArtStep(cfg, WithCoverArtLogger(p.logger)))
	}

	p.AddStep(NewVerifyStep(cfg, wsClient, WithVerifyLogger(p.logger)))

	return p
}
