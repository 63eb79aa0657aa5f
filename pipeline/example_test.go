package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/YuminosukeSato/dslr/dataset"
)

// Example は学習から寮の予測までの一連の流れを示す
func Example() {
	train, err := dataset.Read(strings.NewReader(syntheticCSV(40, true)), "train.csv", dataset.Training)
	if err != nil {
		fmt.Println(err)
		return
	}
	res, err := Train(context.Background(), train, testConfig(), nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	test, err := dataset.Read(strings.NewReader(syntheticCSV(4, false)), "test.csv", dataset.Prediction)
	if err != nil {
		fmt.Println(err)
		return
	}
	p, err := NewPredictor(res.Model)
	if err != nil {
		fmt.Println(err)
		return
	}
	pred, err := p.PredictDataset(test)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("policy: %s\n", p.Policy())
	for i, h := range pred.Houses {
		fmt.Println(i, h)
	}
	// Output:
	// policy: training
	// 0 Gryffindor
	// 1 Hufflepuff
	// 2 Ravenclaw
	// 3 Slytherin
}
