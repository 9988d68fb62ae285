package poll

import (
	"context"

	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/metrics"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

// readSensor implements the engine's one shared sensor-read rule: an
// unbound leaf reads as 0 without contacting the transport; a transport
// error or an unavailable reading also reads as 0, leaving the tree
// structurally untouched either way.
// rec may be nil, in which case failures simply aren't counted.
func readSensor(ctx context.Context, session ipmi.Session, leaf *tree.Node, rec *metrics.Recorder) {
	ref := leaf.SensorRef()
	if ref == nil {
		leaf.SetValue(common.Float(0))
		return
	}

	raw, ok, err := session.GetSensorReading(ctx, ref.Number)
	if err != nil || !ok {
		leaf.SetValue(common.Float(0))
		if rec != nil {
			rec.IncSensorReadFailure()
		}
		return
	}

	if ref.Type == ipmi.FullSensorRecord {
		leaf.SetValue(common.Float(ref.ConvertSensorRawToValue(raw)))
		return
	}
	leaf.SetValue(intValue(int(raw)))
}

func intValue(v int) common.Value { return common.Int(int64(v)) }
