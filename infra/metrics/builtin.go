package metrics

import (
	"github.com/enervision/transition/core/factory"
	coremetrics "github.com/enervision/transition/core/metrics"
)

func init() {
	// Registration errors only occur on duplicate names, which is a
	// programming error at init time.
	must(coremetrics.RegisterSink("nop", func(map[string]any) (coremetrics.Sink, error) {
		return coremetrics.NopSink{}, nil
	}))
	must(coremetrics.RegisterSink("prometheus", func(map[string]any) (coremetrics.Sink, error) {
		return NewPromSink()
	}))
	must(coremetrics.RegisterSink("influx", func(conf map[string]any) (coremetrics.Sink, error) {
		var ic InfluxConfig
		if err := factory.Decode(conf, &ic); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(ic), nil
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
