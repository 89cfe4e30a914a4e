// Command gen-poselog generates sample pose logs for testing replay.
package main

import (
	"flag"
	"log"

	"github.com/felo/sportai-web-sub011/internal/pose"
)

func main() {
	output := flag.String("o", "sample.poselog", "output path")
	frames := flag.Int("n", 300, "number of frames")
	modelName := flag.String("model", string(pose.ModelCOCO), "keypoint model (coco17 or extended33)")
	persons := flag.Int("persons", 1, "figure count")
	seed := flag.Int64("seed", 1, "jitter seed")
	flag.Parse()

	model := pose.Model(*modelName)
	if !model.Valid() {
		log.Fatalf("unknown model %q", *modelName)
	}

	w, err := pose.CreateLog(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer w.Close()

	gen := pose.NewSyntheticGenerator(model)
	gen.PersonCount = *persons
	gen.Seed(*seed)

	for i := 0; i < *frames; i++ {
		frame, err := gen.Next()
		if err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}
		if err := w.WriteFrame(frame); err != nil {
			log.Fatalf("write frame %d: %v", i, err)
		}
		if (i+1)%100 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}
	log.Printf("✓ Created: %s", *output)
}
