// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	pipelineMetricSubsystem = "pipeline"
)

var (
	PipelineFramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: binserNamespace,
		Subsystem: pipelineMetricSubsystem,
		Name:      "frames_total",
		Help:      "经过消息管线的帧数量",
	}, []string{directionLabelName, serializerLabelName, statusLabelName})

	PipelineFrameBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: binserNamespace,
		Subsystem: pipelineMetricSubsystem,
		Name:      "frame_bytes",
		Help:      "单帧在线路上的字节数",
		Buckets:   sizeBuckets,
	}, []string{directionLabelName})

	PipelineCompressionRatio = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: binserNamespace,
		Subsystem: pipelineMetricSubsystem,
		Name:      "compression_ratio",
		Help:      "压缩后与压缩前的字节数之比",
		Buckets:   ratioBuckets,
	}, []string{compressionLabelName})
)

func registerPipelineMetrics(r prometheus.Registerer) {
	r.MustRegister(PipelineFramesTotal)
	r.MustRegister(PipelineFrameBytes)
	r.MustRegister(PipelineCompressionRatio)
}
