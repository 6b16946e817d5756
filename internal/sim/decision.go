package sim

// Observation is what a policy sees for one agent on one tick.
type Observation struct {
	Y             float64 // Agent's vertical position
	GapDistance   float64 // |Y - active obstacle's gap top|
	LowerDistance float64 // |Y - active obstacle's lower barrier|
}

// Inputs returns the observation as a policy input vector.
func (o Observation) Inputs() []float64 {
	return []float64{o.Y, o.GapDistance, o.LowerDistance}
}

// DecisionProvider supplies the jump decision for each live agent.
// It is called once per live agent per tick, in ascending AgentID order.
type DecisionProvider interface {
	Decide(id AgentID, obs Observation) bool
}

// DecisionFunc adapts a plain function to DecisionProvider.
type DecisionFunc func(id AgentID, obs Observation) bool

// Decide calls f.
func (f DecisionFunc) Decide(id AgentID, obs Observation) bool {
	return f(id, obs)
}

// Policy is the decision function of a single agent.
type Policy interface {
	Decide(obs Observation) bool
}

// PolicyFunc adapts a plain function to Policy.
type PolicyFunc func(obs Observation) bool

// Decide calls f.
func (f PolicyFunc) Decide(obs Observation) bool {
	return f(obs)
}

// Policies pairs agents with policies by AgentID: agent i asks policy i.
// Agents without a policy never jump.
type Policies []Policy

// Decide implements DecisionProvider.
func (p Policies) Decide(id AgentID, obs Observation) bool {
	i := int(id)
	if i < 0 || i >= len(p) || p[i] == nil {
		return false
	}
	return p[i].Decide(obs)
}
