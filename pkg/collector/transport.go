package collector

// Transport identifies a message-broker technology. Collector dispatch is
// by this closed enumeration, never by reflection.
type Transport string

const (
	TransportRabbitMQ   Transport = "rabbitmq"
	TransportServiceBus Transport = "servicebus"
	TransportSQLTable   Transport = "sqltable"
	TransportCloudQueue Transport = "cloudqueue"
	TransportMonitoring Transport = "monitoring"
)

// IsValid reports whether t is a supported transport.
func (t Transport) IsValid() bool {
	switch t {
	case TransportRabbitMQ, TransportServiceBus, TransportSQLTable,
		TransportCloudQueue, TransportMonitoring:
		return true
	}
	return false
}

// SupportedTransports returns all supported transports in display order.
func SupportedTransports() []Transport {
	return []Transport{
		TransportRabbitMQ,
		TransportServiceBus,
		TransportSQLTable,
		TransportCloudQueue,
		TransportMonitoring,
	}
}
