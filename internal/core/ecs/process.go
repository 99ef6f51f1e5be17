package ecs

// Process runs the stage hook of every instance of a class that is
// currently in stage, in SID order. Classes without the hook are skipped.
// The per-stage SID list is rebuilt only when a component entered or left
// the stage since the last pass.
func (r *ComponentRepository) Process(tid ComponentTID, stage ProcessStage, ctx *ProcessContext) int {
	c := r.class(tid)
	if c == nil || stage <= Unknown || stage >= stageCount || !c.hooks[stage] {
		return 0
	}

	n := 0
	for _, sid := range c.dueList(stage) {
		comp := c.instances[sid]
		// an earlier hook in this pass may have moved or retired it
		if comp == nil || comp.CurrentProcessStage() != stage {
			continue
		}
		invokeStage(comp, stage, ctx)
		n++
	}
	return n
}

// ProcessStage runs one stage for every registered class in TID order and
// returns how many hooks ran.
func (r *ComponentRepository) ProcessStage(stage ProcessStage, ctx *ProcessContext) int {
	n := 0
	for tid := 1; tid < len(r.classes); tid++ {
		n += r.Process(ComponentTID(tid), stage, ctx)
	}
	return n
}

// DueCount returns how many instances of a class sit in stage.
func (r *ComponentRepository) DueCount(tid ComponentTID, stage ProcessStage) int {
	c := r.class(tid)
	if c == nil || stage <= Unknown || stage >= stageCount {
		return 0
	}
	return len(c.dueList(stage))
}
