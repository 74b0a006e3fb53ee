package kernel

type BatchID string

func NewBatchID(id string) BatchID { return BatchID(id) }
func (b BatchID) String() string   { return string(b) }
func (b BatchID) IsEmpty() bool    { return string(b) == "" }

type CandidateID string

func NewCandidateID(id string) CandidateID { return CandidateID(id) }
func (c CandidateID) String() string       { return string(c) }
func (c CandidateID) IsEmpty() bool        { return string(c) == "" }

type JobID string

func NewJobID(id string) JobID { return JobID(id) }
func (j JobID) String() string { return string(j) }
func (j JobID) IsEmpty() bool  { return string(j) == "" }
