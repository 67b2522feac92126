package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync/atomic"
	"time"

	"matchcore/domain"
	"matchcore/matching"
)

func main() {
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	defer cpuFile.Close()

	pprof.StartCPUProfile(cpuFile)
	defer pprof.StopCPUProfile()

	fmt.Println("=== 性能分析开始 ===")
	fmt.Println("生成 CPU profile: cpu.prof")

	instrument := domain.NewInstrument("BTCUSDT")
	core := matching.NewCore(instrument, 1)
	queue := matching.NewQueue[matching.Command](1 << 16)
	consumer := queue.NewConsumer()

	var orderCount, tradeCount atomic.Int64
	done := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)
		for {
			cmd := consumer.Consume()
			if cmd.Kind == matching.CommandStop {
				return
			}
			events := core.Apply(cmd, uint64(time.Now().UnixNano()))
			for _, e := range events {
				if e.Kind == matching.EventTradeExecution {
					tradeCount.Add(1)
				}
			}
		}
	}()

	duration := 10 * time.Second
	numCPU := runtime.NumCPU()
	numWorkers := numCPU - 2
	if numWorkers < 1 {
		numWorkers = 1
	}

	fmt.Printf("CPU 核心数: %d\n", numCPU)
	fmt.Printf("生产者数量: %d\n", numWorkers)
	fmt.Printf("测试时长: %v\n\n", duration)

	startTime := time.Now()
	producerStop := make(chan struct{})

	for w := 0; w < numWorkers; w++ {
		go func(workerID int) {
			orderID := uint32(0)
			for {
				select {
				case <-producerStop:
					return
				default:
				}
				var side domain.Side
				if orderID%2 == 0 {
					side = domain.SideBuy
				} else {
					side = domain.SideSell
				}
				queue.Push(matching.Command{Kind: matching.CommandNewOrder, NewOrder: domain.OrderRequest{
					ClientID:   uint32(workerID + 1),
					Instrument: instrument,
					Side:       side,
					Px:         50000 + orderID%200,
					Qty:        1,
					TIF:        domain.TIFGTC,
				}})
				orderCount.Add(1)
				orderID++
			}
		}(w)
	}

	time.Sleep(duration)
	close(producerStop)
	time.Sleep(200 * time.Millisecond)
	queue.Push(matching.Command{Kind: matching.CommandStop})
	<-done

	elapsed := time.Since(startTime)
	totalOrders := orderCount.Load()
	totalTrades := tradeCount.Load()

	fmt.Println("\n=== 性能测试结果 ===")
	fmt.Printf("总订单数: %d\n", totalOrders)
	fmt.Printf("总成交数: %d\n", totalTrades)
	fmt.Printf("Order QPS: %.0f orders/sec\n", float64(totalOrders)/elapsed.Seconds())
	fmt.Printf("Trade TPS: %.0f trades/sec\n", float64(totalTrades)/elapsed.Seconds())

	fmt.Println("\n分析 CPU profile:")
	fmt.Println("  go tool pprof -http=:8080 cpu.prof")
	fmt.Println("  或者: go tool pprof cpu.prof")
	fmt.Println("  然后输入: top10  (查看前 10 个热点函数)")
	fmt.Println("  然后输入: list <函数名>  (查看具体代码)")
}
