package metrics

import "sync"

// InMemoryFactory keeps all values in a map, for tests and local inspection.
type InMemoryFactory struct {
	lock     sync.Mutex
	counters map[string]int64
	gauges   map[string]int64
}

func NewInMemoryFactory() *InMemoryFactory {
	return &InMemoryFactory{
		counters: make(map[string]int64),
		gauges:   make(map[string]int64),
	}
}

func (f *InMemoryFactory) Counter(name string) Counter {
	return &inMemoryCounter{factory: f, name: name}
}

func (f *InMemoryFactory) Gauge(name string) Gauge {
	return &inMemoryGauge{factory: f, name: name}
}

func (f *InMemoryFactory) CounterValue(name string) int64 {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.counters[name]
}

func (f *InMemoryFactory) GaugeValue(name string) int64 {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.gauges[name]
}

type inMemoryCounter struct {
	factory *InMemoryFactory
	name    string
}

func (c *inMemoryCounter) Inc(delta int64) {
	c.factory.lock.Lock()
	c.factory.counters[c.name] += delta
	c.factory.lock.Unlock()
}

type inMemoryGauge struct {
	factory *InMemoryFactory
	name    string
}

func (g *inMemoryGauge) Update(value int64) {
	g.factory.lock.Lock()
	g.factory.gauges[g.name] = value
	g.factory.lock.Unlock()
}
