package batch

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/config"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/errors"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/memory"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/model"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/request"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/tensor"
	"github.com/Meesho/BharatMLStack/tensor-batcher/internal/types"
	"github.com/Meesho/BharatMLStack/tensor-batcher/pkg/ds"
	"github.com/Meesho/BharatMLStack/tensor-batcher/pkg/metric"
)

// Pipeline assembles scheduler-delivered requests into one batched run and
// scatters the results back. One pipeline serves one model instance and is
// invoked serially; concurrent instances each get their own pipeline and
// stream.
type Pipeline struct {
	cfg    *config.ModelConfig
	handle *model.Handle
	stream *memory.Stream
	tags   []string
}

func NewPipeline(cfg *config.ModelConfig, handle *model.Handle, stream *memory.Stream) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		handle: handle,
		stream: stream,
		tags: []string{
			metric.TagAsString(metric.TagModel, cfg.Name),
			metric.TagAsString(metric.TagDevice, strconv.FormatInt(handle.InputDeviceID, 10)),
		},
	}
}

// Execute runs one batch. Every request is answered on its own response and
// released exactly once, on every path; errors that poison the whole batch
// fail every live request with the same status.
func (p *Pipeline) Execute(requests []request.Request) {
	log.Debug().Msgf("Running %s with %d requests", p.cfg.Name, len(requests))
	execStart := time.Now()

	maxBatchSize := p.cfg.MaxBatchSize

	// A nil request means the scheduler is badly wrong. Fail and release
	// everything.
	totalBatchSize := int64(0)
	for _, req := range requests {
		if req == nil {
			p.respondAllEarly(requests, errors.Internalf(
				"null request given to batching pipeline for '%s'", p.cfg.Name))
			return
		}
		if maxBatchSize > 0 {
			in, err := req.InputByIndex(0)
			if err != nil {
				p.respondAllEarly(requests, err)
				return
			}
			totalBatchSize += in.Shape()[0]
		} else {
			totalBatchSize++
		}
	}

	// Nothing to run. Only reachable when called with no requests.
	if totalBatchSize == 0 {
		return
	}

	// total must be 1 for non-batching models; beyond max the scheduler has
	// done something badly wrong.
	if totalBatchSize != 1 && totalBatchSize > int64(maxBatchSize) {
		p.respondAllEarly(requests, errors.Internalf(
			"batch size %d for '%s', max allowed is %d",
			totalBatchSize, p.cfg.Name, maxBatchSize))
		return
	}

	// From here on the batch is committed: requests are answered through
	// their slots and released at the very end.
	slots := NewSlots(requests)
	collector := NewCollector(requests, slots, p.stream)

	inputTensors, ok := p.collectInputs(requests, slots, collector, totalBatchSize)
	if !ok {
		slots.ReleaseAll()
		return
	}

	if collector.Finalize() {
		p.stream.Synchronize()
	}

	outputNames, required := p.requiredOutputs(requests, slots)

	computeStart := time.Now()
	outputTensors, err := p.runModel(inputTensors, outputNames)
	if err != nil {
		slots.FailAll(err)
		slots.ReleaseAll()
		return
	}
	computeDur := time.Since(computeStart)

	responder := NewResponder(requests, slots, required, maxBatchSize > 0, p.stream)
	p.scatterOutputs(slots, responder, outputNames, outputTensors)

	if responder.Finalize() {
		p.stream.Synchronize()
	}

	slots.SendRemaining()

	failed := int64(0)
	for i := 0; i < slots.Len(); i++ {
		if !slots.Alive(i) {
			failed++
		}
	}
	metric.Timing(metric.ModelExecuteLatency, time.Since(execStart), p.tags)
	metric.Timing(metric.ModelComputeLatency, computeDur, p.tags)
	metric.Count(metric.ModelBatchSize, totalBatchSize, p.tags)
	metric.Count(metric.ModelRequestCount, int64(len(requests)), p.tags)
	if failed > 0 {
		metric.Count(metric.ModelRequestFailed, failed, p.tags)
	}

	slots.ReleaseAll()
	log.Debug().Msgf("model %s released %d requests", p.cfg.Name, len(requests))
}

// collectInputs builds one batch tensor per declared input plus the derived
// batch inputs. A tensor allocation failure poisons the whole batch; the
// caller still owns releasing the requests.
func (p *Pipeline) collectInputs(requests []request.Request, slots *Slots,
	collector *Collector, totalBatchSize int64) ([]*tensor.Tensor, bool) {

	inputTensors := make([]*tensor.Tensor, 0, requests[0].InputCount()+len(p.cfg.BatchInput))

	// All requests carry equally-shaped inputs, so the first request is the
	// representative for names, types, and per-request dims.
	for idx := 0; idx < requests[0].InputCount(); idx++ {
		in, err := requests[0].InputByIndex(idx)
		if err != nil {
			slots.FailAll(err)
			return nil, false
		}
		name := in.Name()

		var batchnShape tensor.Shape
		if p.cfg.IsInputRagged(name) {
			// A ragged input runs as the flattened concatenation of every
			// request's elements.
			batchnShape = tensor.Shape{0}
			for i, req := range requests {
				rin, err := req.Input(name)
				if err != nil {
					slots.Fail(i, err)
					continue
				}
				batchnShape[0] += rin.Shape().ElementCount()
			}
		} else {
			batchnShape = in.Shape().Clone()
			if p.cfg.MaxBatchSize != 0 {
				batchnShape[0] = totalBatchSize
			}
		}

		t, err := tensor.New(p.handle.InputNameMap.InModel(name), in.DataType(), batchnShape, p.handle.InputDeviceID)
		if err != nil {
			slots.FailAll(errors.Internalf(
				"failed to create input tensor '%s' with shape %s and data type %s for '%s'",
				name, tensor.ShapeToString(batchnShape, 0), in.DataType(), p.cfg.Name))
			return nil, false
		}
		inputTensors = append(inputTensors, t)

		if in.DataType() == types.DataTypeString {
			collector.ProcessStringTensor(name, t)
		} else {
			collector.ProcessTensor(name, t)
		}
	}

	for i := range p.cfg.BatchInput {
		bi := &p.cfg.BatchInput[i]
		shape, err := collector.BatchInputShape(bi)
		if err != nil {
			slots.FailAll(err)
			return nil, false
		}
		dataType := types.FromConfigString(bi.DataType)

		for _, name := range bi.TargetNames {
			t, err := tensor.New(p.handle.InputNameMap.InModel(name), dataType, shape, p.handle.InputDeviceID)
			if err != nil {
				slots.FailAll(errors.Internalf(
					"failed to create input tensor '%s' with shape %s and data type %s for '%s'",
					name, tensor.ShapeToString(shape, 0), dataType, p.cfg.Name))
				return nil, false
			}
			if err := collector.ProcessBatchInput(bi, t); err != nil {
				slots.FailAll(err)
				return nil, false
			}
			inputTensors = append(inputTensors, t)
		}
	}

	return inputTensors, true
}

// requiredOutputs gathers the union of requested output names across live
// requests, in first-seen order, plus the per-request sets used to skip
// outputs a request did not ask for.
func (p *Pipeline) requiredOutputs(requests []request.Request, slots *Slots) ([]string, []map[string]bool) {
	union := ds.NewOrderedSet[string]()
	required := make([]map[string]bool, len(requests))

	for i, req := range requests {
		required[i] = make(map[string]bool)
		if !slots.Alive(i) {
			continue
		}
		for _, name := range req.RequestedOutputs() {
			union.Add(name)
			required[i][name] = true
		}
	}

	return union.Keys(), required
}

func (p *Pipeline) runModel(inputs []*tensor.Tensor, outputNames []string) ([]*tensor.Tensor, error) {
	modelNames := make([]string, len(outputNames))
	for i, name := range outputNames {
		modelNames[i] = p.handle.OutputNameMap.InModel(name)
	}
	outputs, err := p.handle.Runner.Run(inputs, modelNames)
	if err != nil {
		return nil, err
	}
	if len(outputs) != len(outputNames) {
		return nil, errors.Internalf(
			"model '%s' returned %d outputs, expecting %d", p.cfg.Name, len(outputs), len(outputNames))
	}
	return outputs, nil
}

func (p *Pipeline) scatterOutputs(slots *Slots, responder *Responder,
	outputNames []string, outputTensors []*tensor.Tensor) {

	for i, name := range outputNames {
		t := outputTensors[i]

		if bo := p.cfg.FindBatchOutput(name); bo != nil {
			if err := responder.ProcessBatchOutput(name, bo, t); err != nil {
				slots.FailAll(err)
				return
			}
			continue
		}

		if t.DataType() == types.DataTypeString {
			responder.ProcessStringTensor(name, t)
		} else {
			responder.ProcessTensor(name, t)
		}
	}
}

// respondAllEarly answers every request with the same error before any slots
// exist and releases them. Used for failures that precede the commit point.
func (p *Pipeline) respondAllEarly(requests []request.Request, err error) {
	for _, req := range requests {
		if req == nil {
			continue
		}
		resp, respErr := req.CreateResponse()
		if respErr != nil {
			log.Error().Msgf("Fail to create response for request '%s': %v", req.ID(), respErr)
		} else if sendErr := resp.Send(err); sendErr != nil {
			log.Error().Msgf("failed to send error response: %v", sendErr)
		}
		req.Release()
	}
}
