// 版权所有 2025 DesignFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的全链路指标采集能力，覆盖
共识、Agent、会话与消息总线四大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
注册机制。所有指标按 namespace 隔离，支持多维度 label 分组，
便于 Grafana 等工具进行可视化与告警。

# 主要能力

  - 共识指标：共识轮次总数与耗时，按最终 status 分组。
  - Agent 指标：评估总数、评估耗时、被隔离的失败计数，
    按 specialty 分组。
  - 会话指标：迭代总数与耗时（按会话状态分组）、活跃会话 Gauge。
  - 总线指标：发布计数与因订阅者缓冲满导致的丢弃计数，按 topic 分组。
*/
package metrics
