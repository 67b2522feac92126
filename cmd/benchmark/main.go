package main

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"matchcore/domain"
	"matchcore/matching"
)

func main() {
	fmt.Println("=== 撮合核心性能测试 ===")

	instrument := domain.NewInstrument("BTCUSDT")
	core := matching.NewCore(instrument, 1)
	queue := matching.NewQueue[matching.Command](1 << 16)
	consumer := queue.NewConsumer()

	var orderCount, tradeCount atomic.Int64
	done := make(chan struct{})

	// 撮合协程：单线程消费队列驱动 Core，保持 single-writer 语义
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

	testDuration := 5 * time.Second
	numCPU := runtime.NumCPU()
	numWorkers := numCPU - 2
	if numWorkers < 1 {
		numWorkers = 1
	}

	fmt.Printf("CPU 核心数: %d\n", numCPU)
	fmt.Printf("生产者数量: %d (NumCPU - 2)\n", numWorkers)
	fmt.Printf("测试时长: %v\n\n", testDuration)

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

	ticker := time.NewTicker(time.Second)
	go func() {
		for range ticker.C {
			elapsed := time.Since(startTime)
			orders := orderCount.Load()
			trades := tradeCount.Load()
			fmt.Printf("[%.0fs] 订单: %d (%.0f/s) | 成交: %d (%.0f/s)\n",
				elapsed.Seconds(), orders, float64(orders)/elapsed.Seconds(), trades, float64(trades)/elapsed.Seconds())
		}
	}()

	time.Sleep(testDuration)
	close(producerStop)
	ticker.Stop()
	time.Sleep(200 * time.Millisecond)
	queue.Push(matching.Command{Kind: matching.CommandStop})
	<-done

	elapsed := time.Since(startTime)
	totalOrders := orderCount.Load()
	totalTrades := tradeCount.Load()
	qps := float64(totalOrders) / elapsed.Seconds()
	tps := float64(totalTrades) / elapsed.Seconds()

	fmt.Println("\n=== 性能测试结果 ===")
	fmt.Printf("测试时长:     %v\n", elapsed)
	fmt.Printf("总订单数:     %d\n", totalOrders)
	fmt.Printf("总成交数:     %d\n", totalTrades)
	fmt.Printf("订单吞吐量:   %.0f orders/sec\n", qps)
	fmt.Printf("成交吞吐量:   %.0f trades/sec\n", tps)

	fmt.Println("\n=== 性能评级 ===")
	switch {
	case qps >= 1_000_000:
		fmt.Println("极致性能 (>100万 QPS)")
	case qps >= 500_000:
		fmt.Println("优秀性能 (50万-100万 QPS)")
	case qps >= 100_000:
		fmt.Println("良好性能 (10万-50万 QPS)")
	case qps >= 10_000:
		fmt.Println("合格性能 (1万-10万 QPS)")
	default:
		fmt.Println("性能较低 (<1万 QPS)")
	}

	fmt.Println("\n=== 订单簿状态 ===")
	if level, ok := core.Book().Side(domain.SideBuy).Best(); ok {
		fmt.Printf("最佳买价: %d, 数量: %d\n", level.Px, level.TotalQty)
	}
	if level, ok := core.Book().Side(domain.SideSell).Best(); ok {
		fmt.Printf("最佳卖价: %d, 数量: %d\n", level.Px, level.TotalQty)
	}
}
