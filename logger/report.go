package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type endpointStat struct {
	requests int64
	rows     int64
}

var (
	errorsReader    int64
	errorsMonitor   int64
	warnsReader     int64
	warnsMonitor    int64
	cyclesCompleted int64
	cyclesSkipped   int64
	endpoints       sync.Map // map[string]*endpointStat
)

func recordWarn(component string) {
	if strings.Contains(component, "reader") {
		atomic.AddInt64(&warnsReader, 1)
	} else if strings.Contains(component, "monitor") {
		atomic.AddInt64(&warnsMonitor, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "reader") {
		atomic.AddInt64(&errorsReader, 1)
	} else if strings.Contains(component, "monitor") {
		atomic.AddInt64(&errorsMonitor, 1)
	}
}

// IncrementFetch records one request against the named endpoint along with
// the number of rows it returned.
func IncrementFetch(endpoint string, rows int) {
	v, _ := endpoints.LoadOrStore(endpoint, &endpointStat{})
	es := v.(*endpointStat)
	atomic.AddInt64(&es.requests, 1)
	atomic.AddInt64(&es.rows, int64(rows))
}

// IncrementCycleCompleted records one fully rendered fetch cycle.
func IncrementCycleCompleted() {
	atomic.AddInt64(&cyclesCompleted, 1)
}

// IncrementCycleSkipped records a cycle abandoned because of a fetch failure.
func IncrementCycleSkipped() {
	atomic.AddInt64(&cyclesSkipped, 1)
}

// StartReport begins periodic logging of system and cycle statistics.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")

	endpointData := map[string]map[string]int64{}
	endpoints.Range(func(k, v any) bool {
		name := k.(string)
		es := v.(*endpointStat)
		endpointData[name] = map[string]int64{
			"requests": atomic.LoadInt64(&es.requests),
			"rows":     atomic.LoadInt64(&es.rows),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	fields := Fields{
		"errors_reader":    atomic.LoadInt64(&errorsReader),
		"errors_monitor":   atomic.LoadInt64(&errorsMonitor),
		"warns_reader":     atomic.LoadInt64(&warnsReader),
		"warns_monitor":    atomic.LoadInt64(&warnsMonitor),
		"cycles_completed": atomic.LoadInt64(&cyclesCompleted),
		"cycles_skipped":   atomic.LoadInt64(&cyclesSkipped),
		"goroutines":       runtime.NumGoroutine(),
		"cpu_percent":      cpuPct,
		"memory_mb":        int64(memStats.Used) / 1024 / 1024,
		"disk_mb":          int64(diskStats.Used) / 1024 / 1024,
		"endpoints":        endpointData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("CyclesCompleted"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["cycles_completed"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("CyclesSkipped"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["cycles_skipped"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("FetchErrors"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_reader"].(int64)))},
	)

	for name, stats := range endpointData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("EndpointRequests"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Endpoint"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["requests"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("EndpointRows"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Endpoint"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["rows"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
