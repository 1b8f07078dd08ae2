// Command searchtree picks a move for a FEN position using the chessmcts
// search engine and prints it in UCI notation.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	chessmcts "github.com/rooktree/chessmcts"
)

func main() {
	fen := flag.String("fen", "", "FEN of the position to search")
	timeSeconds := flag.Float64("time", 2.0, "search time budget per worker, in seconds")
	explorationC := flag.Float64("c", math.Sqrt2, "PUCT exploration constant")
	workers := flag.Int("workers", 4, "number of parallel search workers")
	flag.Parse()

	if *fen == "" {
		log.Fatal("searchtree: -fen is required")
	}

	move, err := chessmcts.SearchTree(*fen, *timeSeconds, *explorationC, *workers)
	if err != nil {
		log.Fatalf("searchtree: %v", err)
	}
	fmt.Println(move)
}
