package metrics

import "go.uber.org/fx"

// Module provides the scrape handler as `name:"metrics"`.
var Module = fx.Options(
	fx.Provide(fx.Annotate(Handler, fx.ResultTags(`name:"metrics"`))),
)
