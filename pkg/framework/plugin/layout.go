package plugin

import (
	"github.com/justyntemme/zitarev/pkg/framework/engine"
	"github.com/justyntemme/zitarev/pkg/framework/param"
)

// Layout returns the reverb parameters in declaration order.
func Layout() []*param.Parameter {
	return []*param.Parameter{
		param.New(engine.ParamDelay, "Delay").
			Range(0.02, 0.1).
			Default(0.04).
			Unit("s").
			Interval(0.001).
			Formatter(param.SecondsFormatter, param.SecondsParser).
			Build(),

		param.New(engine.ParamRTMid, "RT Mid").
			Range(0.1, 8.0).
			Default(2.0).
			Unit("s").
			Interval(0.01).
			Formatter(param.SecondsFormatter, param.SecondsParser).
			Build(),

		param.New(engine.ParamRTLow, "RT Low").
			Range(0.1, 8.0).
			Default(3.0).
			Unit("s").
			Interval(0.01).
			Formatter(param.SecondsFormatter, param.SecondsParser).
			Build(),

		param.New(engine.ParamDamp, "Damping").
			Range(1000, 20000).
			Default(6000).
			Unit("Hz").
			Interval(1).
			Skew(0.4).
			Formatter(param.FrequencyFormatter, param.FrequencyParser).
			Build(),

		param.New(engine.ParamMix, "Mix").
			Range(0, 1).
			Default(0.8).
			Interval(0.001).
			Formatter(param.ProportionFormatter, param.ProportionParser).
			Build(),
	}
}
