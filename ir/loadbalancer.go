package ir

// Load balancer policies of a mapping group. Only the hash-based ones
// make session affinity (hash policy) meaningful on compiled routes.
const (
	LBPolicyRoundRobin   = "round_robin"
	LBPolicyLeastRequest = "least_request"
	LBPolicyRingHash     = "ring_hash"
	LBPolicyMaglev       = "maglev"
)

// LoadBalancer is the load balancing configuration of a group. At
// most one of Cookie, Header and SourceIP is used for the hash
// policy; they are checked in that order.
type LoadBalancer struct {
	Policy   string
	Cookie   *LoadBalancerCookie
	Header   string
	SourceIP bool
}

// LoadBalancerCookie configures cookie-based session affinity.
type LoadBalancerCookie struct {
	Name string
	Path string
	TTL  string
}

// HashBased reports whether the policy distributes by consistent
// hashing.
func (lb *LoadBalancer) HashBased() bool {
	return lb.Policy == LBPolicyRingHash || lb.Policy == LBPolicyMaglev
}
