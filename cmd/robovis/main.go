package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/plus3/robovis/bus"
	"github.com/plus3/robovis/tf"
	"github.com/plus3/robovis/viewer"
	"github.com/plus3/robovis/viewer/debugui"
	"github.com/plus3/robovis/viz"
)

func main() {
	url := flag.String("url", "ws://localhost:9090", "Websocket URL of the middleware bridge.")
	markerTopic := flag.String("marker-topic", "/visualization_marker", "Single-marker topic to subscribe to.")
	arrayTopic := flag.String("marker-array-topic", "/visualization_marker_array", "Batched marker topic to subscribe to.")
	tfTopic := flag.String("tf-topic", "/tf", "Transform topic to subscribe to.")
	fixedFrame := flag.String("fixed-frame", "map", "Reference frame all poses resolve into.")
	lifetime := flag.Duration("lifetime", 0, "Default entity expiry window. 0 disables expiry.")
	meshPath := flag.String("mesh-path", ".", "Base path for package:// mesh resources.")
	hidden := flag.String("hidden", "", "Comma-separated shape type codes to suppress.")
	follow := flag.String("follow", "", "Entity key the F key toggles camera follow on.")
	tps := flag.Int("tps", 30, "Render loop rate cap in ticks per second.")
	width := flag.Int("width", 1280, "Window width.")
	height := flag.Int("height", 720, "Window height.")
	debug := flag.Bool("debug", false, "Show the registry and frame inspectors.")
	flag.Parse()

	logger := log.New(os.Stderr, "robovis: ", log.LstdFlags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := bus.Dial(ctx, *url, logger)
	if err != nil {
		logger.Fatalf("connecting to %s: %v", *url, err)
	}
	defer client.Close()
	for _, topic := range []string{*markerTopic, *arrayTopic, *tfTopic} {
		if err := client.Subscribe(topic); err != nil {
			logger.Fatalf("subscribing to %s: %v", topic, err)
		}
	}

	tree := tf.NewTree(*fixedFrame)
	factory := viewer.NewShapeFactory()
	view := viewer.New(viewer.Options{
		Title:      "robovis",
		Width:      *width,
		Height:     *height,
		TPS:        *tps,
		FollowKey:  viz.EntityKey(*follow),
		ExpiryPoll: 200 * time.Millisecond,
		Logger:     logger,
	})
	registry := viz.NewRegistry(factory, tree, view, viz.Options{
		Lifetime:     *lifetime,
		MeshBasePath: *meshPath,
		HiddenShapes: parseHidden(*hidden, logger),
		Logger:       logger,
	})
	defer registry.Dispose()
	view.Bind(registry, tree)

	if *debug {
		view.SetOverlay(debugui.NewOverlay("robovis", *width, *height, registry, tree))
	}

	go decodeLoop(client, view.Intake(), *markerTopic, *arrayTopic, *tfTopic, logger)

	if err := view.Run(ctx); err != nil {
		logger.Fatalf("render loop: %v", err)
	}
}

// decodeLoop turns raw bus messages into ordered intake batches for the
// viewer. It exits when the client closes its delivery channel.
func decodeLoop(client *bus.Client, intake chan<- viewer.Intake, markerTopic, arrayTopic, tfTopic string, logger *log.Logger) {
	for msg := range client.Messages() {
		var in viewer.Intake
		switch msg.Topic {
		case markerTopic:
			ev, err := bus.DecodeMarker(msg.Data)
			if err != nil {
				logger.Printf("bad marker message: %v", err)
				continue
			}
			in.Events = []viz.Event{ev}
		case arrayTopic:
			events, err := bus.DecodeMarkerArray(msg.Data)
			if err != nil {
				logger.Printf("bad marker array message: %v", err)
				continue
			}
			in.Events = events
		case tfTopic:
			updates, err := bus.DecodeTransforms(msg.Data)
			if err != nil {
				logger.Printf("bad transform message: %v", err)
				continue
			}
			in.Transforms = updates
		default:
			continue
		}
		intake <- in
	}
}

func parseHidden(list string, logger *log.Logger) []viz.ShapeType {
	if list == "" {
		return nil
	}
	var hidden []viz.ShapeType
	for _, field := range strings.Split(list, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			logger.Printf("ignoring bad shape code %q: %v", field, err)
			continue
		}
		hidden = append(hidden, viz.ShapeType(code))
	}
	return hidden
}
