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
	codecMetricSubsystem = "codec"
)

var (
	CodecEncodeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: binserNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "encode_total",
		Help:      "顶层编码调用次数",
	}, []string{statusLabelName})

	CodecDecodeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: binserNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "decode_total",
		Help:      "顶层解码调用次数",
	}, []string{statusLabelName})

	CodecEncodedBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: binserNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "encoded_bytes",
		Help:      "单次编码产生的字节数",
		Buckets:   sizeBuckets,
	})

	CodecSkippedMembers = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: binserNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "skipped_members_total",
		Help:      "解码时因未知或无法解码而被跳过的成员数",
	})

	CodecErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: binserNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "errors_total",
		Help:      "编解码失败次数，按错误码分类",
	}, []string{codeLabelName})
)

func registerCodecMetrics(r prometheus.Registerer) {
	r.MustRegister(CodecEncodeTotal)
	r.MustRegister(CodecDecodeTotal)
	r.MustRegister(CodecEncodedBytes)
	r.MustRegister(CodecSkippedMembers)
	r.MustRegister(CodecErrors)
}
