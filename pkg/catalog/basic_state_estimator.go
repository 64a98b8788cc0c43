package catalog

import "github.com/aerialworks/skylaunch/pkg/launch"

// BasicStateEstimator returns the launch description for the basic state
// estimator node: five overridable arguments followed by one node started
// under a namespace derived from the drone identifier. The estimation mode
// flags and the base frame are forwarded to the node as parameters.
func BasicStateEstimator() launch.Description {
	return launch.Description{
		Arguments: []launch.Argument{
			{Name: "drone_id", Default: "drone0"},
			{Name: "odom_only", Default: "False"},
			{Name: "ground_truth", Default: "False"},
			{Name: "sensor_fusion", Default: "False"},
			{Name: "base_frame", Default: "base_link"},
		},
		Nodes: []launch.NodeSpec{
			{
				Package:    "basic_state_estimator",
				Executable: "basic_state_estimator_node",
				Name:       "basic_state_estimator",
				Namespace:  launch.Configuration("drone_id"),
				Parameters: []launch.Param{
					{Name: "odom_only", Value: launch.Configuration("odom_only")},
					{Name: "ground_truth", Value: launch.Configuration("ground_truth")},
					{Name: "sensor_fusion", Value: launch.Configuration("sensor_fusion")},
					{Name: "base_frame", Value: launch.Configuration("base_frame")},
				},
				Output:     launch.OutputScreen,
				EmulateTTY: true,
			},
		},
	}
}
